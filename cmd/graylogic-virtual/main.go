// Gray Logic Virtual - Virtual Device Connector
//
// This is the main entry point for the Gray Logic Virtual connector.
// It supervises software-emulated devices (currently thermostats),
// runs their control loops, and reports state over MQTT or through
// the in-process event writer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-virtual/migrations"

	"github.com/nerrad567/gray-logic-virtual/internal/api"
	"github.com/nerrad567/gray-logic-virtual/internal/connector"
	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-virtual/internal/property"

	"github.com/google/uuid"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Virtual",
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

	connectorID, err := uuid.Parse(cfg.Connector.ID)
	if err != nil {
		return fmt.Errorf("parsing connector id: %w", err)
	}

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

	// Initialise device registry and connection tracker
	deviceRepo := device.NewSQLiteRepository(db.DB)
	deviceRegistry := device.NewRegistry(deviceRepo, connectorID)
	deviceRegistry.SetLogger(log)

	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised",
		"connector_id", connectorID,
		"devices", len(deviceRegistry.ListDevices()),
	)

	deviceTracker := device.NewTracker(deviceRepo)
	deviceTracker.SetLogger(log)

	// Property state store (in-memory actual/expected values)
	stateStore := property.NewStore()

	// Connect to MQTT broker (exchange writer only)
	var mqttClient *mqtt.Client
	if cfg.Connector.Writer == config.WriterExchange {
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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("event writer selected, MQTT not required")
	}

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

	// Create and start the connector
	connOpts := connector.Options{
		Config:   cfg.Connector,
		Registry: deviceRegistry,
		Tracker:  deviceTracker,
		Store:    stateStore,
		Logger:   log,
	}
	if mqttClient != nil {
		connOpts.MQTTClient = mqttClient
	}
	if influxClient != nil {
		connOpts.Telemetry = influxClient
	}

	conn, err := connector.New(connOpts)
	if err != nil {
		return fmt.Errorf("creating connector: %w", err)
	}
	if startErr := conn.Start(ctx); startErr != nil {
		return fmt.Errorf("starting connector: %w", startErr)
	}
	defer func() {
		log.Info("stopping connector")
		conn.Stop()
	}()
	log.Info("connector started",
		"connector_id", conn.ID(),
		"writer", cfg.Connector.Writer,
		"devices", conn.Supervisor().ActiveDevices(),
	)

	// Start the status API (if enabled)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Registry: deviceRegistry,
			Tracker:  deviceTracker,
			Store:    stateStore,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
		log.Info("API server started",
			"host", cfg.API.Host,
			"port", cfg.API.Port,
		)
	} else {
		log.Info("API server disabled")
	}

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (if enabled)
	// 2. Connector (supervisor, writer, drain loop)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if exchange writer)
	// 5. Database

	log.Info("Gray Logic Virtual stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
// mqttClient and influxClient may be nil when not configured.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
