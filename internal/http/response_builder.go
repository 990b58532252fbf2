package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"dailyspend/internal/core"
	"dailyspend/internal/log"
)

type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type successBody struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status: validation and parameter errors are
// 400, everything else is 500 with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *core.ValidationError
	var pe *paramError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: ve.Error(), Field: ve.Field})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: pe.Error()})
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, nil)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal error"})
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Message: "rate limit exceeded, try again later"})
}
