// Package logging provides structured logging for the doorbell core.
//
// It wraps log/slog with JSON output for production, text output for
// development, level filtering, and default fields (service, version)
// on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("event routed", "doorbell_id", id, "type", typ)
//
// Device tokens are credentials for the push platform; log only a prefix.
package logging
