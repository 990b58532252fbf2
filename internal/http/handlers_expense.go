package http

import (
	"net/http"
	"strings"

	"dailyspend/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type expenseRequest struct {
	Name       string     `json:"name"`
	Amount     flexString `json:"amount"`
	Details    *string    `json:"details"`
	CategoryID *string    `json:"categoryId"`
	Date       string     `json:"date"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, "create category", err)
		return
	}
	c, err := s.svc.CreateCategory(r.Context(), core.CategoryInput{
		Name:  sanitizeInput(req.Name),
		Color: sanitizeInput(req.Color),
	})
	if err != nil {
		s.writeError(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, "delete category", err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// handleListExpenses returns every expense, or the enriched expenses of a
// day (?date=) or an inclusive range (?startDate=&endDate=).
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	switch {
	case q.Has("date"):
		date, err := queryDate(q, "date")
		if err != nil {
			s.writeError(w, r, "list expenses", err)
			return
		}
		exps, err := s.svc.ListExpensesByDate(ctx, date.String())
		if err != nil {
			s.writeError(w, r, "list expenses", err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(exps))

	case q.Has("startDate") || q.Has("endDate"):
		start, err := queryDate(q, "startDate")
		if err != nil {
			s.writeError(w, r, "list expenses", err)
			return
		}
		end, err := queryDate(q, "endDate")
		if err != nil {
			s.writeError(w, r, "list expenses", err)
			return
		}
		exps, err := s.svc.ListExpensesByDateRange(ctx, start.String(), end.String())
		if err != nil {
			s.writeError(w, r, "list expenses", err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(exps))

	default:
		exps, err := s.svc.ListExpenses(ctx)
		if err != nil {
			s.writeError(w, r, "list expenses", err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(exps))
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, "create expense", err)
		return
	}

	in := core.ExpenseInput{
		Name:   sanitizeInput(req.Name),
		Amount: strings.TrimSpace(string(req.Amount)),
		Date:   core.Date(strings.TrimSpace(req.Date)),
	}
	if req.Details != nil {
		in.Details = sanitizeInput(*req.Details)
	}
	if req.CategoryID != nil {
		in.CategoryID = strings.TrimSpace(*req.CategoryID)
	}

	e, err := s.svc.CreateExpense(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create expense", err)
		return
	}
	s.appMetrics.expenseCreated()
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, "delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// nonNil makes empty results encode as [] rather than null.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
