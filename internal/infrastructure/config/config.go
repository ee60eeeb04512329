package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFirebase = "firebase"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Push transports.
const (
	PushFCM  = "fcm"
	PushMQTT = "mqtt"
)

// Dedup scheduling modes.
const (
	// DedupSync makes HandleEventWrite wait for the tag scan before returning.
	DedupSync = "sync"

	// DedupAsync runs the tag scan on a tracked background goroutine.
	DedupAsync = "async"
)

// Config is the root configuration structure for the doorbell core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Project       ProjectConfig       `yaml:"project"`
	Firebase      FirebaseConfig      `yaml:"firebase"`
	Store         StoreConfig         `yaml:"store"`
	Database      DatabaseConfig      `yaml:"database"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	API           APIConfig           `yaml:"api"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	Logging       LoggingConfig       `yaml:"logging"`
	Dedup         DedupConfig         `yaml:"dedup"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Push          PushConfig          `yaml:"push"`
}

// ProjectConfig identifies the hosting project.
// The ID is normally injected by the platform (FIREBASE_CONFIG) rather than set in YAML.
type ProjectConfig struct {
	ID string `yaml:"id"`
}

// FirebaseConfig contains Firebase Admin SDK settings.
type FirebaseConfig struct {
	// CredentialsFile is a service account JSON file. Empty uses application default credentials.
	CredentialsFile string `yaml:"credentials_file"`

	// DatabaseURL is the Realtime Database URL, e.g. https://my-project-default-rtdb.firebaseio.com
	DatabaseURL string `yaml:"database_url"`
}

// StoreConfig selects the hierarchical store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// DatabaseConfig contains SQLite database settings (sqlite store backend).
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DedupConfig controls when the tag scan runs relative to HandleEventWrite.
type DedupConfig struct {
	Mode string `yaml:"mode"`
}

// NotificationsConfig contains notification template settings.
type NotificationsConfig struct {
	// AppURLTemplate is formatted with the project ID to build click_action.
	AppURLTemplate string `yaml:"app_url_template"`

	// ServerSideRing dispatches RING and SENSOR_TRIGGERED notifications from the core.
	// Off by default: the doorbell notifies subscribers itself.
	ServerSideRing bool `yaml:"server_side_ring"`
}

// PushConfig selects and tunes the push-delivery transport.
type PushConfig struct {
	Transport string         `yaml:"transport"`
	Breaker   BreakerConfig  `yaml:"breaker"`
	MQTT      PushMQTTConfig `yaml:"mqtt"`
}

// BreakerConfig tunes the circuit breaker in front of FCM.
type BreakerConfig struct {
	// ConsecutiveFailures opens the circuit after this many failed sends in a row.
	ConsecutiveFailures int `yaml:"consecutive_failures"`

	// OpenSeconds is how long the circuit stays open before a trial send.
	OpenSeconds int `yaml:"open_seconds"`
}

// PushMQTTConfig contains settings for the MQTT push transport.
type PushMQTTConfig struct {
	QoS int `yaml:"qos"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DOORBELL_SECTION_KEY
// For example: DOORBELL_STORE_BACKEND, DOORBELL_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: StoreFirebase,
		},
		Database: DatabaseConfig{
			Path:        "./data/doorbell.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "doorbell-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Dedup: DedupConfig{
			Mode: DedupSync,
		},
		Notifications: NotificationsConfig{
			AppURLTemplate: "https://%s.firebaseapp.com/",
		},
		Push: PushConfig{
			Transport: PushFCM,
			Breaker: BreakerConfig{
				ConsecutiveFailures: 5,
				OpenSeconds:         30,
			},
			MQTT: PushMQTTConfig{QoS: 1},
		},
	}
}

// platformConfig is the subset of FIREBASE_CONFIG we read.
type platformConfig struct {
	ProjectID   string `json:"projectId"`
	DatabaseURL string `json:"databaseURL"`
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Platform-injected variables are applied first so DOORBELL_* always wins.
func applyEnvOverrides(cfg *Config) {
	// Platform
	if v := os.Getenv("FIREBASE_CONFIG"); v != "" {
		var pc platformConfig
		if err := json.Unmarshal([]byte(v), &pc); err == nil {
			if pc.ProjectID != "" {
				cfg.Project.ID = pc.ProjectID
			}
			if pc.DatabaseURL != "" {
				cfg.Firebase.DatabaseURL = pc.DatabaseURL
			}
		}
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" && cfg.Project.ID == "" {
		cfg.Project.ID = v
	}

	// Project and Firebase
	if v := os.Getenv("DOORBELL_PROJECT_ID"); v != "" {
		cfg.Project.ID = v
	}
	if v := os.Getenv("DOORBELL_FIREBASE_CREDENTIALS"); v != "" {
		cfg.Firebase.CredentialsFile = v
	}
	if v := os.Getenv("DOORBELL_FIREBASE_DATABASE_URL"); v != "" {
		cfg.Firebase.DatabaseURL = v
	}

	// Store
	if v := os.Getenv("DOORBELL_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("DOORBELL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("DOORBELL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DOORBELL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DOORBELL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("DOORBELL_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("DOORBELL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Dedup
	if v := os.Getenv("DOORBELL_DEDUP_MODE"); v != "" {
		cfg.Dedup.Mode = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Backend {
	case StoreFirebase:
		if c.Firebase.DatabaseURL == "" {
			errs = append(errs, "firebase.database_url is required for the firebase store")
		}
	case StoreSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite store")
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Sprintf("store.backend %q must be firebase, sqlite or memory", c.Store.Backend))
	}

	switch c.Push.Transport {
	case PushFCM:
	case PushMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "push.transport mqtt requires mqtt.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("push.transport %q must be fcm or mqtt", c.Push.Transport))
	}

	if c.Push.MQTT.QoS < 0 || c.Push.MQTT.QoS > 2 {
		errs = append(errs, "push.mqtt.qos must be 0, 1, or 2")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Dedup.Mode != DedupSync && c.Dedup.Mode != DedupAsync {
		errs = append(errs, fmt.Sprintf("dedup.mode %q must be sync or async", c.Dedup.Mode))
	}

	// The redirect URL in ONLINE/OFFLINE payloads is built from the project ID.
	if c.Project.ID == "" {
		errs = append(errs, "project.id is required (set FIREBASE_CONFIG or DOORBELL_PROJECT_ID)")
	}
	if !strings.Contains(c.Notifications.AppURLTemplate, "%s") {
		errs = append(errs, "notifications.app_url_template must contain %s for the project id")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BreakerOpenDuration returns how long the FCM circuit stays open.
func (c *Config) BreakerOpenDuration() time.Duration {
	return time.Duration(c.Push.Breaker.OpenSeconds) * time.Second
}
