package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"dailyspend/internal/analytics"
	"dailyspend/internal/core"
	"dailyspend/internal/log"
	"dailyspend/internal/store"
)

type appMetrics struct {
	startedAt     time.Time
	totalExpenses int64
	cacheHits     int64
	cacheMisses   int64
}

func newAppMetrics(now time.Time) *appMetrics {
	return &appMetrics{startedAt: now}
}

func (m *appMetrics) expenseCreated() { atomic.AddInt64(&m.totalExpenses, 1) }
func (m *appMetrics) cacheHit()       { atomic.AddInt64(&m.cacheHits, 1) }
func (m *appMetrics) cacheMiss()      { atomic.AddInt64(&m.cacheMisses, 1) }

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.appMetrics.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks that templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if _, err := s.svc.ListCategories(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	gridEntries := 0
	if s.grids != nil {
		gridEntries = s.grids.Size()
	}
	checks["cache"] = map[string]any{
		"grid_entries": gridEntries,
		"status":       "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	gridEntries := 0
	if s.grids != nil {
		gridEntries = s.grids.Size()
	}

	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "Total number of HTTP 5xx responses", "counter", traceMetrics.ServerErrors)
	metric("http_requests_in_flight", "Requests currently being served", "gauge", traceMetrics.InFlight)
	metric("http_response_time_avg_microseconds", "Average response time", "gauge", traceMetrics.AverageResponseTime())
	metric("expenses_created_total", "Total number of expenses created over HTTP", "counter", atomic.LoadInt64(&s.appMetrics.totalExpenses))
	metric("cache_hits_total", "Total calendar grid cache hits", "counter", atomic.LoadInt64(&s.appMetrics.cacheHits))
	metric("cache_misses_total", "Total calendar grid cache misses", "counter", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	metric("cache_entries", "Current calendar grid cache entries", "gauge", gridEntries)
	metric("rate_limit_rejections_total", "Total requests rejected by the rate limiter", "counter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("invalid_forwarded_ip_total", "Forwarded client addresses that failed to parse", "counter", securityMetrics.InvalidIPAttempts)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", s.now().Sub(s.appMetrics.startedAt).Seconds()))
}

type dayView struct {
	Date     core.Date
	Day      int
	InMonth  bool
	Today    bool
	Selected bool
	Total    core.Money
	HasSpend bool
}

type indexData struct {
	Title      string
	Year       int
	Month      int
	Prev       time.Time
	Next       time.Time
	Weekdays   []string
	Weeks      [][]dayView
	Stats      analytics.MonthStats
	Selected   core.Date
	DayTotal   core.Money
	DayItems   []core.ExpenseWithCategory
	ByCategory []analytics.CategoryTotal
	Categories []core.Category
}

// handleIndex renders the month calendar with daily totals and the
// selected day's expenses.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	today := s.calendar.Today()

	selected := today
	if q.Has("date") {
		d, err := queryDate(q, "date")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		selected = d
	}
	sel := selected.Time()
	year, month, err := queryYearMonthOr(q, sel.Year(), int(sel.Month()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.buildIndex(ctx, year, month, selected)
	if err != nil {
		s.logger.ErrorContext(ctx, "Build calendar page failed", log.FieldError, err)
		http.Error(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(ctx, "Index template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", "index.html")
	}
}

func (s *Server) buildIndex(ctx context.Context, year, month int, selected core.Date) (indexData, error) {
	cats, err := s.svc.ListCategories(ctx)
	if err != nil {
		return indexData{}, err
	}
	exps, err := s.svc.ListExpenses(ctx)
	if err != nil {
		return indexData{}, err
	}

	monthly := analytics.MonthlyTotals(exps, year, time.Month(month))
	totals := make(map[core.Date]core.Money, len(monthly))
	for _, d := range monthly {
		totals[d.Date] = d.Total
	}

	grid := s.monthGrid(year, month)
	weeks := make([][]dayView, 0, 6)
	for _, row := range grid.Weeks() {
		days := make([]dayView, 0, 7)
		for _, c := range row {
			total, ok := totals[c.DateString]
			if !ok {
				total = core.Zero
			}
			days = append(days, dayView{
				Date:     c.DateString,
				Day:      c.Day,
				InMonth:  c.IsCurrentMonth,
				Today:    c.IsToday,
				Selected: c.DateString == selected,
				Total:    total,
				HasSpend: ok && !total.IsZero(),
			})
		}
		weeks = append(weeks, days)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return indexData{
		Title:      first.Format("January 2006"),
		Year:       year,
		Month:      month,
		Prev:       first.AddDate(0, -1, 0),
		Next:       first.AddDate(0, 1, 0),
		Weekdays:   []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		Weeks:      weeks,
		Stats:      analytics.SummarizeMonth(year, time.Month(month), monthly),
		Selected:   selected,
		DayTotal:   analytics.DailyTotal(exps, selected),
		DayItems:   core.Enrich(store.FilterByDate(exps, selected), cats),
		ByCategory: analytics.CategoryTotals(exps, cats, selected),
		Categories: cats,
	}, nil
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(s.currency) },
		"amount": func(a string) string {
			m, err := core.MoneyFromString(a)
			if err != nil {
				return a
			}
			return m.Format(s.currency)
		},
		"percent":  func(p float64) string { return fmt.Sprintf("%.0f%%", p) },
		"monthNum": func(t time.Time) int { return int(t.Month()) },
	}
}
