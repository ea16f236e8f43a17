// Package web provides the HTTP server and handlers for the role-based
// analytics dashboard.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/roledash/internal/config"
	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/state"
	appmw "github.com/JonMunkholm/roledash/internal/web/middleware"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// Server is the HTTP server for the dashboard.
type Server struct {
	service  *core.Service
	sessions state.Store
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server instance. Close must be called to stop
// its rate limiter cleanup goroutines.
func NewServer(service *core.Service, sessions state.Store, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		sessions: sessions,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// limit returns a stricter per-route limiter, or a no-op when rate
// limiting is disabled.
func (s *Server) limit(perMinute int) func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newLimiter(perMinute).middleware
}

func (s *Server) newLimiter(perMinute int) *rateLimiter {
	rl := newRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.loadSession)

		// Sign-in
		loginLimit := s.limit(s.cfg.Rate.LoginLimit)
		r.With(loginLimit).Get(LoginPath, s.handleLoginPage)
		r.With(loginLimit).Post(LoginPath, s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireAuth(s.authenticated, LoginPath))

			// Pages
			r.Get("/", s.handleRoot)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/dashboard/charts", s.handleCharts)
			r.Get("/dashboard/customers", s.handleCustomers)
			r.Get("/dashboard/customers/{customerID}", s.handleRecommendations)
			r.Get("/dashboard/rm-table", s.handleKnowledgeTable)

			// Admin impersonation
			r.Post("/session/role", s.handleSwitchRole)

			r.Route("/api", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(s.limit(s.cfg.Rate.ExportLimit))
					r.Get("/export.csv", s.handleExportCSV)
					r.Get("/export.pdf", s.handleExport)
					r.Get("/export.xlsx", s.handleExport)
					r.Get("/export/rows", s.handleExportRows)
				})
				r.Get("/columns", s.handleColumns)
				r.Get("/session", s.handleSessionInfo)
			})
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Close stops the rate limiter cleanup goroutines. It is safe to call more
// than once.
func (s *Server) Close() {
	for _, rl := range s.limiters {
		rl.stop()
	}
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. Pages may be
// framed by the dashboard itself, which embeds the charts page.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", pageCSP)
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	// pageCSP allows htmx from unpkg and inline styles.
	pageCSP = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'self'"

	// chartsCSP also allows the echarts bundle and the inline chart setup
	// scripts that go-echarts emits.
	chartsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline' https://go-echarts.github.io; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'self'"
)

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "json encode error", "error", err)
	}
}
