// SmartHive Core - Smart Home Alerting Service
//
// This is the main entry point for the SmartHive core service. It
// listens for device warnings over MQTT, deduplicates them within a
// cooldown window, and fans surviving alerts out to entitled users as
// push notifications. Telemetry readings from the same devices are
// recorded to InfluxDB when enabled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/smarthive/core/migrations"

	"github.com/smarthive/core/internal/alert"
	"github.com/smarthive/core/internal/entitlement"
	"github.com/smarthive/core/internal/infrastructure/config"
	"github.com/smarthive/core/internal/infrastructure/database"
	"github.com/smarthive/core/internal/infrastructure/influxdb"
	"github.com/smarthive/core/internal/infrastructure/logging"
	"github.com/smarthive/core/internal/infrastructure/mqtt"
	"github.com/smarthive/core/internal/notify"
	"github.com/smarthive/core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SmartHive Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker
	topics := mqtt.NewTopics(cfg.Alerting.TopicPrefix)
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to the push provider
	dispatcher, err := notify.New(ctx, cfg.Firebase)
	if err != nil {
		return fmt.Errorf("initialising push dispatcher: %w", err)
	}
	log.Info("push dispatcher initialised", "channel", cfg.Firebase.AndroidChannelID)

	// Wire the alert pipeline
	resolver := entitlement.NewSQLiteStore(db.DB)
	cooldowns := alert.NewCooldownStore()

	listener := alert.NewListener(cooldowns, resolver, dispatcher, alert.ListenerConfig{
		Topics:              topics,
		QoS:                 byte(cfg.MQTT.QoS),
		Window:              cfg.CooldownWindow(),
		MaxConcurrent:       cfg.Alerting.MaxConcurrent,
		CollaboratorTimeout: cfg.DispatchTimeout(),
	}, log)

	if startErr := listener.Start(mqttClient); startErr != nil {
		return fmt.Errorf("starting alert listener: %w", startErr)
	}
	defer func() {
		log.Info("draining alert listener")
		listener.Close()
	}()
	log.Info("alert listener started",
		"topic", topics.AllDeviceWarnings(),
		"cooldown", cfg.CooldownWindow(),
		"max_concurrent", cfg.Alerting.MaxConcurrent,
	)

	// Start the cooldown janitor
	janitor := alert.NewJanitor(cooldowns, cfg.CooldownWindow(), cfg.SweepInterval(), log)
	janitor.Start(ctx)
	defer func() {
		log.Info("stopping cooldown janitor")
		janitor.Stop()
	}()
	log.Info("cooldown janitor started", "interval", cfg.SweepInterval())

	// Start the telemetry recorder (requires InfluxDB)
	if influxClient != nil {
		recorder := telemetry.NewRecorder(influxClient, topics, byte(cfg.MQTT.QoS), log)
		if startErr := recorder.Start(mqttClient); startErr != nil {
			return fmt.Errorf("starting telemetry recorder: %w", startErr)
		}
		log.Info("telemetry recorder started", "topic", topics.AllDeviceTelemetry())
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Janitor stops sweeping
	// 2. Listener stops admitting and drains in-flight alerts
	// 3. InfluxDB flushes and closes (if enabled)
	// 4. MQTT disconnects
	// 5. Database closes

	log.Info("SmartHive Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SMARTHIVE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SMARTHIVE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
