package http

import (
	"bytes"
	"net/http"
	"strconv"

	"dailyspend/internal/export"
	"dailyspend/internal/log"
)

type importBody struct {
	Categories int `json:"categories"`
	Expenses   int `json:"expenses"`
}

// handleExport streams the whole store as an attachment. The body is
// buffered so a failure can still be reported as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := formatParam(r, export.FormatCSV)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Export(r.Context(), s.svc.Store(), &buf, f); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(f, s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Store exported",
		log.FieldFormat, f, "bytes", buf.Len())
}

// handleImport replaces the store with the uploaded snapshot.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	f, err := formatParam(r, export.FormatJSON)
	if err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportSize)
	snap, err := export.Decode(body, f)
	if err != nil {
		s.writeError(w, r, log.OpImport, &paramError{name: "body", reason: "is not a valid " + string(f) + " export: " + err.Error()})
		return
	}
	if err := s.svc.Restore(r.Context(), snap); err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	writeJSON(w, http.StatusOK, importBody{
		Categories: len(snap.Categories),
		Expenses:   len(snap.Expenses),
	})
}

func formatParam(r *http.Request, def export.Format) (export.Format, error) {
	v := r.URL.Query().Get("format")
	if v == "" {
		return def, nil
	}
	f, err := export.ParseFormat(v)
	if err != nil {
		return "", &paramError{name: "format", reason: "must be one of csv, xlsx, yaml, json"}
	}
	return f, nil
}
