package http

import (
	"net/http"
	"time"

	"dailyspend/internal/calendar"
	"dailyspend/internal/core"
)

type totalBody struct {
	Date  core.Date  `json:"date"`
	Total core.Money `json:"total"`
}

type calendarBody struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Today core.Date       `json:"today"`
	Cells []calendar.Cell `json:"cells"`
}

func (s *Server) handleDailyTotal(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r.URL.Query(), "date")
	if err != nil {
		s.writeError(w, r, "daily total", err)
		return
	}
	total, err := s.engine.DailyTotal(r.Context(), date)
	if err != nil {
		s.writeError(w, r, "daily total", err)
		return
	}
	writeJSON(w, http.StatusOK, totalBody{Date: date, Total: total})
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r.URL.Query(), "date")
	if err != nil {
		s.writeError(w, r, "category totals", err)
		return
	}
	rows, err := s.engine.CategoryTotals(r.Context(), date)
	if err != nil {
		s.writeError(w, r, "category totals", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	year, month, err := queryYearMonth(r.URL.Query())
	if err != nil {
		s.writeError(w, r, "monthly totals", err)
		return
	}
	rows, err := s.engine.MonthlyTotals(r.Context(), year, time.Month(month))
	if err != nil {
		s.writeError(w, r, "monthly totals", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (s *Server) handleWeeklyTotals(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r.URL.Query(), "date")
	if err != nil {
		s.writeError(w, r, "weekly totals", err)
		return
	}
	rows, err := s.engine.WeeklyTotals(r.Context(), date)
	if err != nil {
		s.writeError(w, r, "weekly totals", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMonthStats(w http.ResponseWriter, r *http.Request) {
	year, month, err := queryYearMonth(r.URL.Query())
	if err != nil {
		s.writeError(w, r, "month stats", err)
		return
	}
	stats, err := s.engine.MonthStats(r.Context(), year, time.Month(month))
	if err != nil {
		s.writeError(w, r, "month stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCalendar returns the 42-cell grid of a one-based month, defaulting
// to the current month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, month, err := queryYearMonthOr(r.URL.Query(), now.Year(), int(now.Month()))
	if err != nil {
		s.writeError(w, r, "calendar", err)
		return
	}
	grid := s.monthGrid(year, month)
	writeJSON(w, http.StatusOK, calendarBody{
		Year:  year,
		Month: month,
		Today: s.calendar.Today(),
		Cells: grid[:],
	})
}
