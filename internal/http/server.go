package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"outgo/internal/auth"
	"outgo/internal/cache"
	"outgo/internal/middleware/trace"
	"outgo/internal/services"
)

// Server is the JSON API over the expense, summary, alert and import
// services. Sessions ride in a cookie; every data route requires one.
type Server struct {
	http.Server
	auth      *auth.Service
	expenses  *services.ExpenseService
	summaries *services.SummaryService
	alerts    *services.AlertGenerator
	importer  *services.CSVImporter

	defaultPageSize int

	rateLimiter *rateLimiter

	// LRU cache for dashboard responses with eviction policy
	dashboardCache *cache.LRUCache[dashboardResponse]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// Deps bundles the collaborators the server routes to.
type Deps struct {
	Auth            *auth.Service
	Expenses        *services.ExpenseService
	Summaries       *services.SummaryService
	Alerts          *services.AlertGenerator
	Importer        *services.CSVImporter
	DefaultPageSize int
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	pageSize := deps.DefaultPageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	s := &Server{
		auth:            deps.Auth,
		expenses:        deps.Expenses,
		summaries:       deps.Summaries,
		alerts:          deps.Alerts,
		importer:        deps.Importer,
		defaultPageSize: pageSize,
		rateLimiter:     newRateLimiter(),
		dashboardCache:  cache.NewLRUCache[dashboardResponse](100, 5*time.Minute),
		cacheManager:    cache.NewManager(),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Credential routes are rate limited per client IP.
	mux.HandleFunc("POST /register", s.withRateLimit(s.handleRegister))
	mux.HandleFunc("POST /login", s.withRateLimit(s.handleLogin))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /expenses", s.requireUser(s.handleListExpenses))
	mux.HandleFunc("POST /expenses", s.requireUser(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses/{id}", s.requireUser(s.handleGetExpense))
	mux.HandleFunc("PUT /expenses/{id}", s.requireUser(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.requireUser(s.handleDeleteExpense))
	mux.HandleFunc("POST /expenses/import", s.requireUser(s.handleImport))

	mux.HandleFunc("GET /dashboard", s.requireUser(s.handleDashboard))

	traced := trace.NewMiddleware(clientIP)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      traced.Middleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withRateLimit rejects clients past the per-minute request budget.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.rateLimiter.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
