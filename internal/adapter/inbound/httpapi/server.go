// Package httpapi is the inbound HTTP adapter: routing, middleware, and
// JSON serialization for the session admin API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/session-desk/sessiondesk/internal/domain/auth"
	"github.com/session-desk/sessiondesk/internal/domain/ratelimit"
	"github.com/session-desk/sessiondesk/internal/service"
)

// Server is the inbound adapter that serves the session API over HTTP.
type Server struct {
	sessions *service.SessionService
	stats    *service.StatsService
	verifier auth.Verifier
	limiter  ratelimit.Limiter
	rates    map[ratelimit.Operation]ratelimit.Config

	server         *http.Server
	addr           string
	allowedOrigins []string
	logger         *slog.Logger
	metrics        *Metrics
	registry       *prometheus.Registry
	healthChecker  *HealthChecker
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithAddr sets the listen address. Default is "127.0.0.1:8080".
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVerifier sets the bearer-token verifier guarding the API routes.
func WithVerifier(v auth.Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

// WithLimiter sets the rate limiter for write operations.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithRates sets the per-operation rate-limit table. Operations missing
// from the table are unmetered.
func WithRates(rates map[ratelimit.Operation]ratelimit.Config) Option {
	return func(s *Server) { s.rates = rates }
}

// WithStatsService sets the stats service behind /api/v1/stats.
func WithStatsService(stats *service.StatsService) Option {
	return func(s *Server) { s.stats = stats }
}

// WithAllowedOrigins sets the CORS allowlist. Empty means any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithHealthChecker sets the health checker for the /healthz endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(s *Server) { s.healthChecker = hc }
}

// NewServer creates a Server wrapping the given session service.
func NewServer(sessions *service.SessionService, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		addr:     "127.0.0.1:8080",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = NewMetrics(s.registry)

	return s
}

// Metrics exposes the server's metric set for components that record into
// it (the health checker's rate-limit gauge).
func (s *Server) Metrics() *Metrics { return s.metrics }

// SetHealthChecker attaches the health checker after construction. The
// checker records into the server's metric set, so it is built from
// Metrics() once the server exists.
func (s *Server) SetHealthChecker(hc *HealthChecker) { s.healthChecker = hc }

// Routes builds the full handler: API routes wrapped in the middleware
// chain, plus the unauthenticated /healthz and /metrics endpoints.
//
// Middleware order (outermost first): Metrics -> RequestID -> RealIP ->
// CORS -> RequestLog -> Auth -> per-route rate limit -> handler. Auth runs
// before the rate limiter so denial counters key on the real subject.
func (s *Server) Routes() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/v1/sessions", s.limited(ratelimit.OpCreate, s.handleCreateSession))
	api.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	api.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	api.HandleFunc("PATCH /api/v1/sessions/{id}", s.limited(ratelimit.OpUpdate, s.handleUpdateRegion))
	api.HandleFunc("DELETE /api/v1/sessions/{id}", s.limited(ratelimit.OpDelete, s.handleDeleteSession))
	api.HandleFunc("PATCH /api/v1/sessions/{id}/status", s.limited(ratelimit.OpUpdateStatus, s.handleUpdateStatus))
	api.HandleFunc("POST /api/v1/sessions/{id}/complete", s.limited(ratelimit.OpComplete, s.handleCompleteSession))
	api.HandleFunc("POST /api/v1/sessions/{id}/fail", s.limited(ratelimit.OpFail, s.handleFailSession))
	api.HandleFunc("GET /api/v1/deleted-sessions", s.handleListDeleted)
	api.HandleFunc("GET /api/v1/stats", s.handleStats)

	// Known paths with the wrong method get the taxonomy 405 instead of
	// the mux default. Method patterns above are more specific and win.
	api.HandleFunc("/api/v1/sessions", s.methodNotAllowed("GET", "POST"))
	api.HandleFunc("/api/v1/sessions/{id}", s.methodNotAllowed("GET", "PATCH", "DELETE"))
	api.HandleFunc("/api/v1/sessions/{id}/status", s.methodNotAllowed("PATCH"))
	api.HandleFunc("/api/v1/sessions/{id}/complete", s.methodNotAllowed("POST"))
	api.HandleFunc("/api/v1/sessions/{id}/fail", s.methodNotAllowed("POST"))
	api.HandleFunc("/api/v1/deleted-sessions", s.methodNotAllowed("GET"))
	api.HandleFunc("/api/v1/stats", s.methodNotAllowed("GET"))

	// Everything else under the API prefix is an unknown route.
	api.HandleFunc("/", s.notFound)

	authed := s.authMiddleware(api)

	mux := http.NewServeMux()
	mux.Handle("/api/", authed)
	if s.healthChecker != nil {
		mux.Handle("GET /healthz", s.healthChecker.Handler())
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		Registry: s.registry,
	}))
	mux.HandleFunc("/", s.notFound)

	var handler http.Handler = mux
	handler = RequestLogMiddleware(handler)
	handler = CORSMiddleware(s.allowedOrigins)(handler)
	handler = RealIPMiddleware(handler)
	handler = RequestIDMiddleware(s.logger)(handler)
	handler = MetricsMiddleware(s.metrics)(handler)
	return handler
}

// methodNotAllowed responds with the taxonomy 405 listing the methods the
// route supports.
func (s *Server) methodNotAllowed(allowed ...string) http.HandlerFunc {
	header := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", header)
		s.respondError(w, r, codeMethodNotAllowed, "method not allowed", map[string]any{
			"allowed": allowed,
		})
	}
}

// notFound is the catch-all for unknown routes.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, codeNotFound, "route not found", nil)
}

// Start begins serving and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down HTTP server")
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return err
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	return s.shutdown()
}
