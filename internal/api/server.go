package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/doorbell-core/internal/doorbell"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/config"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// healthCheckTimeout bounds each dependency check on /health.
const healthCheckTimeout = 2 * time.Second

// EventHandler is the event entry point the webhook forwards to.
type EventHandler interface {
	HandleEventWrite(ctx context.Context, doorbellID, timestamp string, prior, next any) (doorbell.Result, error)
	Stats() doorbell.Stats
}

// HealthChecker is implemented by store backends and infrastructure clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Logger is the logging interface used by the server.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  Logger
	Handler EventHandler

	// Checks are reported by name on /health. A nil entry is skipped.
	Checks map[string]HealthChecker

	// Metrics serves /metrics when set.
	Metrics http.Handler

	Version string
}

// Server is the HTTP API server for the doorbell core.
type Server struct {
	cfg     config.APIConfig
	logger  Logger
	handler EventHandler
	checks  map[string]HealthChecker
	metrics http.Handler
	version string
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Logger and Handler are required; nil entries in Checks are dropped
//
// Returns:
//   - *Server: Configured server ready to Start
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Handler == nil {
		return nil, fmt.Errorf("event handler is required")
	}

	checks := make(map[string]HealthChecker, len(deps.Checks))
	for name, c := range deps.Checks {
		if c != nil {
			checks[name] = c
		}
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		handler: deps.Handler,
		checks:  checks,
		metrics: deps.Metrics,
		version: deps.Version,
	}, nil
}

// Handler returns the routed HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The listener is bound before Start returns so a port conflict is reported
// to the caller.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
