// Package api implements the HTTP surface of the doorbell core.
//
// This package provides:
//   - A trigger webhook that platform adapters call for every event write
//   - A health endpoint reporting handler counters and dependency health
//   - Prometheus exposition at /metrics
//   - Middleware stack (request ID, logging, recovery, body size limit)
//   - TLS support for production deployments
//
// # Endpoints
//
//	GET  /api/v1/health
//	POST /api/v1/doorbells/{doorbellID}/events/{timestamp}   {"before": ..., "after": ...}
//	GET  /metrics
//
// # Status Mapping
//
// The webhook answers 200 with the handling result, 400 for malformed
// requests or keys, 422 for an unrecognised event type and 503 when the
// store or the push transport is unavailable. The caller may retry a 503.
package api
