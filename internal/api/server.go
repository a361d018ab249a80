package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/lifecycle"
	"github.com/cybertriage/cybertriage/internal/metrics"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// Options carries the optional collaborators of a Server.
type Options struct {
	// Bus is reported by /health when set.
	Bus domain.EventBus

	// Metrics records per-request counters when set.
	Metrics *metrics.Metrics

	// Gatherer is served at /metrics when set.
	Gatherer prometheus.Gatherer

	// MCP is mounted at /mcp when set.
	MCP http.Handler

	Version string
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, svc *lifecycle.Service, opts Options) *Server {
	handler := NewHandler(svc, opts.Bus, opts.Version)
	router := chi.NewRouter()

	router.Use(CORSMiddleware)
	router.Use(RecoverMiddleware)
	router.Use(TracingMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(middleware.RealIP)
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
	}

	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.MCP != nil {
		router.Handle("/mcp", opts.MCP)
		router.Handle("/mcp/*", opts.MCP)
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		// Stateless scoring
		r.Post("/classify", handler.Classify)
		r.Post("/severity", handler.ScoreSeverity)
		r.Post("/route", handler.RouteCase)
		r.Get("/categories", handler.ListCategories)
		r.Get("/routing-rules", handler.RoutingRules)
		r.Get("/routing-rules/{category}", handler.RoutingRules)

		// Case lifecycle
		r.Post("/cases", handler.Intake)
		r.Get("/cases", handler.ListCases)
		r.Get("/cases/{id}", handler.GetCase)
		r.Patch("/cases/{id}", handler.UpdateCase)
		r.Post("/cases/{id}/triage", handler.Triage)
		r.Post("/cases/{id}/route", handler.Route)
		r.Get("/cases/{id}/next-action", handler.NextAction)
		r.Post("/cases/{id}/review", handler.RequestReview)
		r.Get("/statistics", handler.Statistics)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
