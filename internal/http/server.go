package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kantong/internal/log"
	"kantong/internal/middleware/ratelimit"
	"kantong/internal/middleware/security"
	"kantong/internal/middleware/trace"
	"kantong/internal/services"
)

// Services groups the domain services the handlers call into.
type Services struct {
	Budgets    *services.BudgetLedger
	Goals      *services.GoalTracker
	Categories *services.CategoryService
	Expenses   *services.ExpenseService
	Streaks    *services.StreakCounter
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Config holds server settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	ReadyTimeout       time.Duration
}

type Server struct {
	http.Server
	svc             Services
	checks          map[string]ReadinessCheck
	readyTimeout    time.Duration
	logger          *log.Logger
	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	ipResolver      *security.IPResolver
	startedAt       time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services, checks map[string]ReadinessCheck, logger *log.Logger) *Server {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 5 * time.Second
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:          svc,
		checks:       checks,
		readyTimeout: cfg.ReadyTimeout,
		logger:       logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		ipResolver: security.NewIPResolver(),
		startedAt:  time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(s.ipResolver.ClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(userID, s.handleRateLimited)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /budgets", s.authed(s.handleCreateBudget))
	mux.HandleFunc("GET /budgets", s.authed(s.handleListBudgets))
	mux.HandleFunc("GET /budgets/current", s.authed(s.handleCurrentBudget))
	mux.HandleFunc("GET /budgets/{year}/{month}", s.authed(s.handleBudgetByMonth))
	mux.HandleFunc("GET /budgets/{id}", s.authed(s.handleGetBudget))
	mux.HandleFunc("PATCH /budgets/{id}", s.authed(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.authed(s.handleDeleteBudget))
	mux.HandleFunc("GET /budgets/{id}/summary", s.authed(s.handleBudgetSummary))

	mux.HandleFunc("POST /goals", s.authed(s.handleCreateGoal))
	mux.HandleFunc("GET /goals", s.authed(s.handleListGoals))
	mux.HandleFunc("GET /goals/active", s.authed(s.handleListActiveGoals))
	mux.HandleFunc("GET /goals/{id}", s.authed(s.handleGetGoal))
	mux.HandleFunc("PATCH /goals/{id}", s.authed(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /goals/{id}", s.authed(s.handleDeleteGoal))
	mux.HandleFunc("POST /goals/{id}/achieve", s.authed(s.handleAchieveGoal))
	mux.HandleFunc("GET /goals/{id}/progress", s.authed(s.handleGoalProgress))

	mux.HandleFunc("POST /categories", s.authed(s.handleCreateCategory))
	mux.HandleFunc("GET /categories", s.authed(s.handleListCategories))
	mux.HandleFunc("GET /categories/{id}", s.authed(s.handleGetCategory))
	mux.HandleFunc("PATCH /categories/{id}", s.authed(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.authed(s.handleDeleteCategory))

	mux.HandleFunc("POST /expenses", s.authed(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses", s.authed(s.handleListExpenses))
	mux.HandleFunc("GET /expenses/today", s.authed(s.handleTodayTotal))
	mux.HandleFunc("GET /expenses/recent", s.authed(s.handleRecentExpenses))
	mux.HandleFunc("GET /expenses/monthly/{year}/{month}", s.authed(s.handleMonthlyTotal))
	mux.HandleFunc("GET /expenses/breakdown", s.authed(s.handleCategoryBreakdown))
	mux.HandleFunc("GET /expenses/{id}", s.authed(s.handleGetExpense))
	mux.HandleFunc("PATCH /expenses/{id}", s.authed(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.authed(s.handleDeleteExpense))

	mux.HandleFunc("GET /me/streak", s.authed(s.handleGetStreak))
}

// userHandler is a handler that runs with an authenticated caller.
type userHandler func(w http.ResponseWriter, r *http.Request, uid string)

// authed rejects requests without a caller identity and attaches the user id
// to the request logger.
func (s *Server) authed(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := userID(r)
		if uid == "" {
			ErrorResponse(http.StatusUnauthorized, kindUnauthorized, "missing "+UserIDHeader+" header").Write(w)
			return
		}
		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, uid))
		next(w, r.WithContext(ctx), uid)
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", log.FieldUserID, userID(r))
	ErrorResponse(http.StatusTooManyRequests, kindRateLimited, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
