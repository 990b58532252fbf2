// Package security sets response hardening headers and flags suspicious
// requests.
package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Policy holds the headers that differ between the HTML page and the JSON
// API.
type Policy struct {
	CSP          string
	CacheControl string
}

// Headers writes hardening headers on every response. Paths under APIPrefix
// get the API policy and everything else gets the page policy.
type Headers struct {
	APIPrefix string
	Page      Policy
	API       Policy

	// Sent only on TLS requests; zero disables HSTS.
	HSTSMaxAge time.Duration
}

func DefaultHeaders() Headers {
	return Headers{
		APIPrefix: "/api/",
		Page: Policy{
			CSP: strings.Join([]string{
				"default-src 'self'",
				"script-src 'self'",
				"style-src 'self' 'unsafe-inline'", // category swatches
				"img-src 'self' data:",
				"connect-src 'self'",
				"object-src 'none'",
				"frame-ancestors 'none'",
				"base-uri 'self'",
				"form-action 'self'",
			}, "; "),
			CacheControl: "no-cache",
		},
		API: Policy{
			// JSON and export downloads never load subresources.
			CSP:          "default-src 'none'; frame-ancestors 'none'",
			CacheControl: "no-store",
		},
		HSTSMaxAge: 365 * 24 * time.Hour,
	}
}

func (h Headers) policyFor(r *http.Request) Policy {
	if h.APIPrefix != "" && strings.HasPrefix(r.URL.Path, h.APIPrefix) {
		return h.API
	}
	return h.Page
}

func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Referrer-Policy", "same-origin")
		hdr.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
		hdr.Set("Cross-Origin-Opener-Policy", "same-origin")
		hdr.Set("Cross-Origin-Resource-Policy", "same-origin")

		p := h.policyFor(r)
		if p.CSP != "" {
			hdr.Set("Content-Security-Policy", p.CSP)
		}
		if p.CacheControl != "" {
			hdr.Set("Cache-Control", p.CacheControl)
		}

		if r.TLS != nil && h.HSTSMaxAge > 0 {
			hdr.Set("Strict-Transport-Security",
				fmt.Sprintf("max-age=%d; includeSubDomains", int(h.HSTSMaxAge.Seconds())))
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware replaces the page Cache-Control for embedded assets.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
