// Package config handles loading and validating doorbell core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (DOORBELL_*)
//   - Reading the platform-injected project identifier (FIREBASE_CONFIG)
//   - Validation of required fields
//
// Security Considerations:
//   - Credentials (MQTT password, InfluxDB token) should be set via environment variables
//   - The Firebase service account file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Store.Backend)
package config
