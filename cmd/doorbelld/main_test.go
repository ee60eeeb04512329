package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/doorbell-core/internal/infrastructure/config"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/logging"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/doorbell-core/internal/metrics"
	"github.com/nerrad567/doorbell-core/internal/store"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("DOORBELL_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_InvalidStoreBackend(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
project:
  id: test-project
store:
  backend: "redis"
mqtt:
  enabled: false
api:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("DOORBELL_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with an unknown store backend")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("DOORBELL_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("DOORBELL_CONFIG", "/etc/doorbell/config.yaml")
	if got := getConfigPath(); got != "/etc/doorbell/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env value", got)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		backend string
	}{
		{"memory", config.StoreMemory},
		{"sqlite", config.StoreSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Store:    config.StoreConfig{Backend: tt.backend},
				Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "doorbell.db"), BusyTimeout: 1},
			}
			st, closeStore, err := openStore(ctx, cfg, nil, logging.Discard())
			if err != nil {
				t.Fatalf("openStore() error = %v", err)
			}
			defer closeStore()

			path := store.DoorbellState("d1", "online")
			if err := st.Set(ctx, path, true); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if v, err := st.Get(ctx, path); err != nil || v != true {
				t.Errorf("Get() = %v, %v; want true", v, err)
			}
			if hc, ok := st.(store.HealthChecker); !ok || hc.HealthCheck(ctx) != nil {
				t.Error("store should pass its health check")
			}
		})
	}
}

func TestNewTransport_MQTTWithoutClient(t *testing.T) {
	cfg := &config.Config{Push: config.PushConfig{Transport: config.PushMQTT}}
	m := metrics.New(prometheus.NewRegistry())

	_, err := newTransport(context.Background(), cfg, nil, nil, m, logging.Discard())
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("newTransport() error = %v, want ErrNotConnected", err)
	}
}
