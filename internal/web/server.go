// Package web provides the HTTP server and handlers for the line-owner
// registry dashboard.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/JonMunkholm/lineowners/internal/config"
	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/export"
	"github.com/JonMunkholm/lineowners/internal/metrics"
	"github.com/JonMunkholm/lineowners/internal/session"
	mw "github.com/JonMunkholm/lineowners/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the long-lived components the server routes requests to.
type Deps struct {
	Catalog  *core.Catalog
	Sessions *session.Store
	Exports  *export.Limiter
	Metrics  *metrics.Metrics // nil when metrics are disabled
}

// Server is the HTTP server for the dashboard.
type Server struct {
	cfg      *config.Config
	catalog  *core.Catalog
	sessions *session.Store
	exports  *export.Limiter
	metrics  *metrics.Metrics

	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Exports == nil {
		deps.Exports = export.NewLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWait)
	}
	s := &Server{
		cfg:      cfg,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		exports:  deps.Exports,
		metrics:  deps.Metrics,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger("/healthz", s.cfg.Metrics.Path))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.With(mw.APIKeyAuth(s.cfg.Security.MetricsAPIKeys)).
			Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			r.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
		}
		r.Use(s.withSession)

		// Pages
		r.Get("/", s.handleDashboard)

		r.Route("/api", func(r chi.Router) {
			r.Get("/view", s.handleView)

			// Facet events
			r.Post("/facets/{facet}/search", s.handleSearch)
			r.Post("/facets/{facet}/selection", s.handleSelection)
			r.Post("/facets/{facet}/select-all", s.handleSelectAll)

			// Global events
			r.Post("/mode", s.handleMode)
			r.Post("/columns", s.handleColumns)
			r.Post("/reset", s.handleReset)

			// Data export
			if s.cfg.Rate.Enabled {
				r.With(s.newRateLimiter(s.cfg.Rate.ExportLimit).middleware).
					Get("/export.{format}", s.handleExport)
			} else {
				r.Get("/export.{format}", s.handleExport)
			}
		})
	})
}

// Start begins listening for HTTP requests. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and waits for running exports.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	err := s.server.Shutdown(ctx)
	if drainErr := s.exports.WaitForDrain(ctx); drainErr != nil {
		slog.Warn("exports still running at shutdown", "active", s.exports.Status().Active)
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// htmx loads from unpkg; styles are inline.
			if enableCSP {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// clientIP returns the request's client address without the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
