package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "finanzas/internal/log"
	"finanzas/internal/metrics"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	MetricsEnabled     bool
	RequestTimeout     time.Duration
	// Location decides which calendar day "today" is when a request does not say.
	Location *time.Location
}

// Services are the application services the handlers call.
type Services struct {
	Transactions *services.TransactionService
	Planning     *services.PlanningService
	Dashboard    *services.DashboardService
	// Ready reports whether the backing store answers; nil means always ready.
	Ready func(context.Context) error
}

// Server is the JSON API server.
type Server struct {
	http.Server
	svc     Services
	loc     *time.Location
	now     func() time.Time
	started time.Time
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services, logger *applog.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Server{
		svc:     svc,
		loc:     cfg.Location,
		now:     time.Now,
		started: time.Now(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
	}

	detector := security.NewDetector()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, detector.ExtractClientIP)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(tracer.Middleware)
	r.Use(applog.Middleware(logger.WithComponent(applog.ComponentHTTP)))
	r.Use(applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }))
	r.Use(headers.Middleware)
	r.Use(detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
		}))

		r.Route("/transactions", func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentLedger))
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.With(applog.ComponentMiddleware(applog.ComponentLedger)).Get("/categories", s.handleListCategories)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentDashboard))
			r.Get("/", s.handleDashboard)
			r.Get("/upcoming", s.handleUpcoming)
			r.Get("/balance-history", s.handleBalanceHistory)
			r.Get("/category-history", s.handleCategoryHistory)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentPlanning))
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleSetBudget)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentPlanning))
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Post("/{id}/deposit", s.handleGoalDeposit)
			r.Post("/{id}/withdraw", s.handleGoalWithdraw)
			r.Delete("/{id}", s.handleDeleteGoal)
		})

		r.Route("/investments", func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentPlanning))
			r.Get("/", s.handleListInvestments)
			r.Post("/", s.handleCreateInvestment)
			r.Patch("/{id}", s.handleUpdateInvestment)
			r.Delete("/{id}", s.handleDeleteInvestment)
		})

		r.With(applog.ComponentMiddleware(applog.ComponentExport)).Get("/reports", s.handleReport)
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
