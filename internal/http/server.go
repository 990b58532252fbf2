// Package http serves the JSON API and the calendar page.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"dailyspend/internal/analytics"
	"dailyspend/internal/cache"
	"dailyspend/internal/calendar"
	"dailyspend/internal/core"
	"dailyspend/internal/log"
	"dailyspend/internal/middleware/ratelimit"
	"dailyspend/internal/middleware/security"
	"dailyspend/internal/middleware/trace"
	"dailyspend/internal/services"
	appweb "dailyspend/web"
)

const (
	gridCacheSize = 48
	maxBodyBytes  = 1 << 20
	maxImportSize = 10 << 20
)

// Options configures a Server. Only Service is required.
type Options struct {
	Addr               string
	Service            *services.ExpenseService
	Logger             *log.Logger
	Currency           core.Currency
	RateLimitPerMinute int
	// GridCacheTTL bounds how long a rendered month grid is reused. Zero
	// disables the cache.
	GridCacheTTL time.Duration
	// Now is the clock for "today"; nil means time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	svc       *services.ExpenseService
	engine    *analytics.Engine
	calendar  *calendar.Generator
	templates *template.Template
	logger    *log.Logger
	currency  core.Currency
	now       func() time.Time

	grids            *cache.LRUCache[calendar.Grid]
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// server. Template parse failures are logged; the page then answers 500.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	currency := opts.Currency
	if !currency.IsValid() {
		currency = core.USD
	}

	s := &Server{
		svc:              opts.Service,
		engine:           analytics.NewEngine(opts.Service),
		calendar:         calendar.NewGenerator(now),
		logger:           logger,
		currency:         currency,
		now:              now,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       newAppMetrics(now()),
	}
	if opts.GridCacheTTL > 0 {
		s.grids = cache.NewLRUCache[calendar.Grid](gridCacheSize, opts.GridCacheTTL)
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate)
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/analytics/daily-total", s.handleDailyTotal)
	mux.HandleFunc("GET /api/analytics/category-totals", s.handleCategoryTotals)
	mux.HandleFunc("GET /api/analytics/monthly-totals", s.handleMonthlyTotals)
	mux.HandleFunc("GET /api/analytics/weekly-totals", s.handleWeeklyTotals)
	mux.HandleFunc("GET /api/analytics/month-stats", s.handleMonthStats)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(h)
	h = security.DefaultHeaders().Middleware(h)
	h = s.securityDetector.Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	return h
}

// RateLimiter exposes the limiter so callers can run its cleanup loop.
func (s *Server) RateLimiter() *ratelimit.Limiter {
	return s.rateLimiter
}

// GridCache returns the calendar grid cache, or nil when disabled.
func (s *Server) GridCache() *cache.LRUCache[calendar.Grid] {
	return s.grids
}

// monthGrid returns the grid for a one-based month, reusing a cached copy
// computed for the same day.
func (s *Server) monthGrid(year, month int) calendar.Grid {
	if s.grids == nil {
		return s.calendar.MonthGrid(year, month-1)
	}
	key := gridKey(year, month, s.calendar.Today())
	if g, ok := s.grids.Get(key); ok {
		s.appMetrics.cacheHit()
		return g
	}
	s.appMetrics.cacheMiss()
	g := s.calendar.MonthGrid(year, month-1)
	s.grids.Set(key, g)
	return g
}

func gridKey(year, month int, today core.Date) string {
	return core.NewDate(year, time.Month(month), 1).String() + "@" + today.String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}
