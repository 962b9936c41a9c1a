package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"tracker/internal/analytics"
	"tracker/internal/auth"
	"tracker/internal/charts"
	"tracker/internal/log"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API is served from.
type Deps struct {
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Analytics    *analytics.Engine
	Charts       *charts.Generator
	Issuer       *auth.Issuer
	Store        Pinger
	Logger       *log.Logger

	// MediaRoot is served under MediaURL when set. MediaURL starts and ends
	// with a slash.
	MediaRoot       string
	MediaURL        string
	MaxReceiptBytes int64

	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	deps     Deps
	links    receiptLinker
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.MediaURL == "" {
		deps.MediaURL = "/media/"
	}

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			deps.Logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}

	s := &Server{
		deps:     deps,
		links:    receiptLinker{mediaURL: deps.MediaURL},
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = trimTrailingSlash(h)
	h = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(deps.Logger.WithComponent(log.ComponentHTTP))(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("POST /api/auth/register", security.NoStore(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/auth/token", security.NoStore(http.HandlerFunc(s.handleToken)))
	mux.Handle("POST /api/auth/token/refresh", security.NoStore(http.HandlerFunc(s.handleTokenRefresh)))

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, security.NoStore(s.deps.Issuer.Middleware(WriteError)(h)))
	}

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("GET /api/categories/{id}", s.handleGetCategory)
	api("PUT /api/categories/{id}", s.handleUpdateCategory(false))
	api("PATCH /api/categories/{id}", s.handleUpdateCategory(true))
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("GET /api/transactions/{id}", s.handleGetTransaction)
	api("PUT /api/transactions/{id}", s.handleUpdateTransaction(false))
	api("PATCH /api/transactions/{id}", s.handleUpdateTransaction(true))
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api("POST /api/transactions/{id}/receipt", s.handleUploadReceipt)

	api("GET /api/budgets", s.handleListBudgets)
	api("POST /api/budgets", s.handleCreateBudget)
	api("GET /api/budgets/{id}", s.handleGetBudget)
	api("PUT /api/budgets/{id}", s.handleUpdateBudget(false))
	api("PATCH /api/budgets/{id}", s.handleUpdateBudget(true))
	api("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	api("GET /api/analytics/monthly", s.handleMonthlyTotals)
	api("GET /api/analytics/monthly-summary", s.handleMonthlySummary)
	api("GET /api/analytics/monthly-summary/chart.png", s.handleMonthlySummaryChart)
	api("GET /api/analytics/by-category", s.handleCategoryTotals)
	api("GET /api/analytics/monthly-by-category", s.handleMonthlyByCategory)
	api("GET /api/analytics/budget-vs-expense/{year}/{month}", s.handleBudgetVsExpense)

	// Receipts are public to anyone holding the link; names are random UUIDs.
	if s.deps.MediaRoot != "" {
		files := http.StripPrefix(s.deps.MediaURL, noDirectoryListing(http.FileServer(http.Dir(s.deps.MediaRoot))))
		mux.Handle("GET "+s.deps.MediaURL, security.StaticAssetMiddleware(86400)(files))
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// trimTrailingSlash lets /api/categories/ and /api/categories reach the
// same route.
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; strings.HasPrefix(p, "/api/") && len(p) > len("/api/") && strings.HasSuffix(p, "/") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = strings.TrimRight(p, "/")
			r2.URL.RawPath = ""
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			NotFoundError().Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
