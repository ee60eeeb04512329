package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Trigger webhook for platform adapters
		r.Post("/doorbells/{doorbellID}/events/{timestamp}", s.handleEventWrite)
	})

	return r
}

// healthResponse is the body of GET /api/v1/health.
type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Stats   any               `json:"stats"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// handleHealth reports handler counters and the health of each dependency.
// Any failing check degrades the status and answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Version: s.version,
		Stats:   s.handler.Stats(),
	}

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
	}
	for name, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := c.HealthCheck(ctx)
		cancel()
		if err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
