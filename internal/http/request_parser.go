package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dailyspend/internal/core"
)

// paramError is a missing or malformed query parameter. It maps to 400
// without a field.
type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("query parameter %q %s", e.name, e.reason)
}

// queryDate reads a required YYYY-MM-DD query parameter.
func queryDate(q url.Values, name string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return "", &paramError{name: name, reason: "is required"}
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return "", &paramError{name: name, reason: "must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

// queryYearMonth reads required year and one-based month parameters.
func queryYearMonth(q url.Values) (int, int, error) {
	year, err := queryInt(q, "year", 1, 9999)
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(q, "month", 1, 12)
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// queryYearMonthOr is queryYearMonth with defaults for absent parameters.
// Present but malformed values are still errors.
func queryYearMonthOr(q url.Values, year, month int) (int, int, error) {
	if strings.TrimSpace(q.Get("year")) != "" {
		y, err := queryInt(q, "year", 1, 9999)
		if err != nil {
			return 0, 0, err
		}
		year = y
	}
	if strings.TrimSpace(q.Get("month")) != "" {
		m, err := queryInt(q, "month", 1, 12)
		if err != nil {
			return 0, 0, err
		}
		month = m
	}
	return year, month, nil
}

func queryInt(q url.Values, name string, lo, hi int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, &paramError{name: name, reason: "is required"}
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, &paramError{name: name, reason: fmt.Sprintf("must be an integer between %d and %d", lo, hi)}
	}
	return n, nil
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &paramError{name: "body", reason: "is too large"}
		case errors.Is(err, io.EOF):
			return &paramError{name: "body", reason: "is required"}
		default:
			return &paramError{name: "body", reason: "must be a JSON object"}
		}
	}
	return nil
}

// sanitizeInput trims whitespace and removes control characters other
// than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// flexString accepts a JSON string or number. Amounts arrive as either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
