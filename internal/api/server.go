package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/bzd-chat/gateway/internal/auth"
)

// Options configures the HTTP server.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64
	Burst             int

	// MetricsPath of "" leaves the metrics endpoint unmounted.
	MetricsPath string
}

// Deps are the collaborators shared by every request. They are constructed
// once at startup and never modified afterwards.
type Deps struct {
	Backends   Backends
	Aggregator Aggregator
	Guard      *auth.Guard
	Log        logrus.FieldLogger

	// Optional.
	Metrics MetricsPort
	Audit   AuditPort
}

// Server is the gateway's HTTP server.
type Server struct {
	backends   Backends
	aggregator Aggregator
	guard      *auth.Guard
	log        logrus.FieldLogger
	metrics    MetricsPort
	audit      AuditPort
	limiter    *rate.Limiter
	opts       Options

	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a server with its routes registered.
func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Guard == nil {
		return nil, errors.New("auth guard is required")
	}
	if deps.Aggregator == nil {
		return nil, errors.New("aggregator is required")
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	s := &Server{
		backends:   deps.Backends,
		aggregator: deps.Aggregator,
		guard:      deps.Guard,
		log:        deps.Log,
		metrics:    deps.Metrics,
		audit:      deps.Audit,
		opts:       opts,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.log.WithField("endpoint", ln.Addr().String()).Info("HTTP server listening")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
