package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
project:
  id: "doorbell-test"
store:
  backend: "sqlite"
database:
  path: "/tmp/doorbell.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  port: 8081
dedup:
  mode: "async"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Project.ID != "doorbell-test" {
		t.Errorf("Project.ID = %q, want %q", cfg.Project.ID, "doorbell-test")
	}
	if cfg.Store.Backend != StoreSQLite {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, StoreSQLite)
	}
	if cfg.Database.Path != "/tmp/doorbell.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/doorbell.db")
	}
	if cfg.API.Port != 8081 {
		t.Errorf("API.Port = %d, want 8081", cfg.API.Port)
	}
	if cfg.Dedup.Mode != DedupAsync {
		t.Errorf("Dedup.Mode = %q, want %q", cfg.Dedup.Mode, DedupAsync)
	}
	// Defaults survive a partial file.
	if cfg.Push.Transport != PushFCM {
		t.Errorf("Push.Transport = %q, want %q", cfg.Push.Transport, PushFCM)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ProjectFromPlatform(t *testing.T) {
	t.Setenv("FIREBASE_CONFIG", `{"projectId":"bell-prod","databaseURL":"https://bell-prod.firebaseio.com"}`)

	cfg, err := Load(writeConfig(t, "store:\n  backend: firebase\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Project.ID != "bell-prod" {
		t.Errorf("Project.ID = %q, want %q", cfg.Project.ID, "bell-prod")
	}
	if cfg.Firebase.DatabaseURL != "https://bell-prod.firebaseio.com" {
		t.Errorf("Firebase.DatabaseURL = %q", cfg.Firebase.DatabaseURL)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Project.ID = "doorbell-test"
		cfg.Store.Backend = StoreMemory
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "missing project id", mutate: func(c *Config) { c.Project.ID = "" }, wantErr: true},
		{name: "unknown store backend", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: true},
		{name: "firebase without url", mutate: func(c *Config) { c.Store.Backend = StoreFirebase }, wantErr: true},
		{
			name: "firebase with url",
			mutate: func(c *Config) {
				c.Store.Backend = StoreFirebase
				c.Firebase.DatabaseURL = "https://x.firebaseio.com"
			},
			wantErr: false,
		},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.Backend = StoreSQLite; c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "api disabled ignores port", mutate: func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }, wantErr: false},
		{name: "unknown dedup mode", mutate: func(c *Config) { c.Dedup.Mode = "later" }, wantErr: true},
		{name: "unknown transport", mutate: func(c *Config) { c.Push.Transport = "apns" }, wantErr: true},
		{name: "mqtt transport without mqtt", mutate: func(c *Config) { c.Push.Transport = PushMQTT }, wantErr: true},
		{name: "url template without verb", mutate: func(c *Config) { c.Notifications.AppURLTemplate = "https://fixed/" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("FIREBASE_CONFIG", `{"projectId":"from-platform"}`)
	t.Setenv("DOORBELL_PROJECT_ID", "from-env")
	t.Setenv("DOORBELL_STORE_BACKEND", "sqlite")
	t.Setenv("DOORBELL_DATABASE_PATH", "/custom/path.db")
	t.Setenv("DOORBELL_MQTT_HOST", "mqtt.example.com")
	t.Setenv("DOORBELL_MQTT_USERNAME", "testuser")
	t.Setenv("DOORBELL_MQTT_PASSWORD", "testpass")
	t.Setenv("DOORBELL_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("DOORBELL_DEDUP_MODE", "async")

	applyEnvOverrides(cfg)

	if cfg.Project.ID != "from-env" {
		t.Errorf("Project.ID = %q, want %q", cfg.Project.ID, "from-env")
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "sqlite")
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Dedup.Mode != DedupAsync {
		t.Errorf("Dedup.Mode = %q, want %q", cfg.Dedup.Mode, DedupAsync)
	}
}

func TestApplyEnvOverrides_MalformedPlatformConfig(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("FIREBASE_CONFIG", "not json")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "gcp-project")

	applyEnvOverrides(cfg)

	if cfg.Project.ID != "gcp-project" {
		t.Errorf("Project.ID = %q, want %q", cfg.Project.ID, "gcp-project")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Store.Backend != StoreFirebase {
		t.Errorf("defaultConfig Store.Backend = %q, want %q", cfg.Store.Backend, StoreFirebase)
	}
	if cfg.Dedup.Mode != DedupSync {
		t.Errorf("defaultConfig Dedup.Mode = %q, want %q", cfg.Dedup.Mode, DedupSync)
	}
	if cfg.Notifications.ServerSideRing {
		t.Error("defaultConfig should leave ServerSideRing off")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}
