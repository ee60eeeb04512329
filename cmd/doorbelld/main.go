// Doorbell Core - event processing for networked doorbells.
//
// doorbelld reacts to event records written by doorbell units: it keeps the
// derived online and gong state, merges duplicate reports by correlation tag,
// and notifies subscribed users through FCM or MQTT.
//
// Events arrive on MQTT (doorbell/{id}/events/{timestamp}) or through the
// HTTP trigger webhook used by platform adapters.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/doorbell-core/internal/api"
	"github.com/nerrad567/doorbell-core/internal/dedup"
	"github.com/nerrad567/doorbell-core/internal/doorbell"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/config"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/database"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/firebase"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/logging"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/doorbell-core/internal/metrics"
	"github.com/nerrad567/doorbell-core/internal/notification"
	"github.com/nerrad567/doorbell-core/internal/push"
	"github.com/nerrad567/doorbell-core/internal/store"
	"github.com/nerrad567/doorbell-core/internal/trigger"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// drainTimeout bounds the wait for background dedup passes at shutdown.
const drainTimeout = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting doorbell core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"project", cfg.Project.ID,
		"store", cfg.Store.Backend,
		"push", cfg.Push.Transport,
		"dedup", cfg.Dedup.Mode,
	)

	var app *firebase.App
	if cfg.Store.Backend == config.StoreFirebase || cfg.Push.Transport == config.PushFCM {
		app, err = firebase.New(ctx, cfg.Project.ID, cfg.Firebase)
		if err != nil {
			return err
		}
	}

	st, closeStore, err := openStore(ctx, cfg, app, log)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	defer closeStore()

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnectionChange(func(connected bool, err error) {
			if connected {
				log.Info("MQTT connected")
				return
			}
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	m := metrics.New(prometheus.NewRegistry())
	recorders := doorbell.Recorders{m}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorders = append(recorders, influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	transport, err := newTransport(ctx, cfg, app, mqttClient, m, log)
	if err != nil {
		return fmt.Errorf("creating %s transport: %w", cfg.Push.Transport, err)
	}

	dispatcher := notification.NewDispatcher(st, transport, log)
	templates := notification.Templates{AppURL: notification.AppURL(cfg.Notifications.AppURLTemplate, cfg.Project.ID)}
	router := doorbell.NewRouter(st, dispatcher, templates, doorbell.RouterOptions{
		ServerSideRing: cfg.Notifications.ServerSideRing,
	})
	handler := doorbell.NewHandler(router, dedup.NewEngine(st, log), doorbell.DedupMode(cfg.Dedup.Mode))
	handler.SetLogger(log)
	handler.SetRecorder(recorders)

	// Registered before the intake defers so it runs after intake has stopped.
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if waitErr := handler.Shutdown(drainCtx); waitErr != nil {
			log.Error("background dedup did not finish", "error", waitErr)
		}
	}()

	if mqttClient != nil {
		ingest := trigger.NewIngest(st, handler, log)
		if subErr := ingest.Subscribe(mqttClient, byte(cfg.MQTT.QoS)); subErr != nil {
			return subErr
		}
		defer func() {
			if unsubErr := mqttClient.Unsubscribe(mqtt.Topics{}.AllDoorbellEvents()); unsubErr != nil {
				log.Warn("error unsubscribing from events", "error", unsubErr)
			}
		}()
		log.Info("MQTT ingest subscribed", "topic", mqtt.Topics{}.AllDoorbellEvents())
	}

	if cfg.API.Enabled {
		checks := map[string]api.HealthChecker{}
		if hc, ok := st.(store.HealthChecker); ok {
			checks["store"] = hc
		}
		if mqttClient != nil {
			checks["mqtt"] = mqttClient
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient
		}

		srv, srvErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Handler: handler,
			Checks:  checks,
			Metrics: m.Handler(),
			Version: version,
		})
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, MQTT ingest, dedup drain,
	// InfluxDB, MQTT, store.
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DOORBELL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DOORBELL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openStore opens the configured store backend. The returned func closes it.
func openStore(ctx context.Context, cfg *config.Config, app *firebase.App, log *logging.Logger) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreFirebase:
		client, err := app.Database(ctx)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using firebase realtime database", "url", cfg.Firebase.DatabaseURL)
		return store.NewFirebase(client), func() {}, nil

	case config.StoreSQLite:
		db, err := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		s, err := store.NewSQLite(ctx, db)
		if err != nil {
			db.Close() //nolint:errcheck // already failing
			return nil, nil, err
		}
		log.Info("using sqlite store", "path", cfg.Database.Path)
		return s, func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}, nil

	default:
		log.Warn("using in-memory store, state is lost on restart")
		return store.NewMemory(), func() {}, nil
	}
}

// newTransport builds the configured push transport.
func newTransport(ctx context.Context, cfg *config.Config, app *firebase.App, mqttClient *mqtt.Client, m *metrics.Metrics, log *logging.Logger) (push.Transport, error) {
	if cfg.Push.Transport == config.PushMQTT {
		if mqttClient == nil {
			return nil, mqtt.ErrNotConnected
		}
		// #nosec G115 -- QoS validated to 0..2
		return push.NewMQTT(mqttClient, mqtt.Topics{}.PushToken, byte(cfg.Push.MQTT.QoS), log), nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	// #nosec G115 -- a negative threshold is treated as the default
	failures := uint32(max(cfg.Push.Breaker.ConsecutiveFailures, 0))
	return push.NewFCM(client, push.BreakerConfig{
		ConsecutiveFailures: failures,
		OpenDuration:        cfg.BreakerOpenDuration(),
		OnStateChange:       m.BreakerStateChanged,
	}, log), nil
}
