// Roomsign Core - Room Booking Display Backend
//
// This is the main entry point for the roomsign backend. It serves the
// display-facing sync surface (pairing, heartbeats, schedule resolution,
// the WebSocket stream) and the admin console API on one HTTP listener,
// with optional MQTT and InfluxDB integrations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/roomsign/roomsign-core/migrations"

	"github.com/roomsign/roomsign-core/internal/api"
	"github.com/roomsign/roomsign-core/internal/device"
	"github.com/roomsign/roomsign-core/internal/infrastructure/config"
	"github.com/roomsign/roomsign-core/internal/infrastructure/database"
	"github.com/roomsign/roomsign-core/internal/infrastructure/influxdb"
	"github.com/roomsign/roomsign-core/internal/infrastructure/logging"
	"github.com/roomsign/roomsign-core/internal/infrastructure/mqtt"
	"github.com/roomsign/roomsign-core/internal/pairing"
	"github.com/roomsign/roomsign-core/internal/schedule"
	"github.com/roomsign/roomsign-core/internal/tenancy"
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

// tokenPurgeInterval is how often expired unused pairing tokens are
// removed from storage.
const tokenPurgeInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Roomsign Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Device registry with heartbeat-based liveness
	deviceRepo := device.NewSQLiteRepository(db.DB)
	registry := device.NewRegistry(deviceRepo, cfg.Heartbeat.StaleAfterDuration())
	registry.SetLogger(log)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", registry.GetStats().TotalDevices)

	// Pairing manager
	tokenRepo := pairing.NewSQLiteTokenRepository(db.DB)
	pairingManager := pairing.NewManager(tokenRepo, deviceRepo, registry, pairing.Options{
		TokenTTL:     cfg.Pairing.TokenTTLDuration(),
		ConsumeCodes: cfg.Pairing.ConsumeCodes,
	})
	pairingManager.SetLogger(log)

	// Periodically purge expired unused pairing tokens
	go purgeTokensLoop(ctx, pairingManager, log)

	// Connect to MQTT broker (optional)
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
		log.Info("MQTT disabled, heartbeats are HTTP-only")
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

	// API server: HTTP routes plus the WebSocket stream hub
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log,
		Registry:  registry,
		Pairing:   pairingManager,
		Tenancy:   tenancy.NewSQLiteRepository(db.DB),
		Events:    schedule.NewSQLiteRepository(db.DB),
		MQTT:      mqttClient,
		Telemetry: influxClient,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (drains HTTP, closes stream clients)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Roomsign Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ROOMSIGN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ROOMSIGN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// purgeTokensLoop removes expired unused pairing tokens on an interval.
func purgeTokensLoop(ctx context.Context, m *pairing.Manager, log *logging.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.PurgeExpiredTokens(ctx)
			if err != nil {
				log.Error("purging expired pairing tokens", "error", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired pairing tokens", "count", n)
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT and InfluxDB clients may be nil when those integrations are
// disabled.
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
