// Lumina Core - Smart Lighting Orchestration
//
// This is the main entry point for the Lumina Core service. Lumina merges
// device discovery from a vendor cloud API and a local-network agent into
// a single catalogue, routes state reads and commands to the healthiest
// transport, and exposes the result over a small HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lumina-home/lumina-core/migrations"

	"github.com/lumina-home/lumina-core/internal/api"
	"github.com/lumina-home/lumina-core/internal/health"
	"github.com/lumina-home/lumina-core/internal/infrastructure/config"
	"github.com/lumina-home/lumina-core/internal/infrastructure/database"
	"github.com/lumina-home/lumina-core/internal/infrastructure/influxdb"
	"github.com/lumina-home/lumina-core/internal/infrastructure/logging"
	"github.com/lumina-home/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-home/lumina-core/internal/lighting"
	"github.com/lumina-home/lumina-core/internal/telemetry"
	"github.com/lumina-home/lumina-core/internal/transport"
	"github.com/lumina-home/lumina-core/internal/transport/cloudapi"
	"github.com/lumina-home/lumina-core/internal/transport/localnet"
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

// warmupTimeout bounds the startup snapshot warm and first discovery pass.
const warmupTimeout = 30 * time.Second

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
	log.Info("starting Lumina Core",
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

	// Open database and run migrations
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

	// Telemetry: in-memory counters always, InfluxDB additionally when enabled.
	memSink := telemetry.NewMemorySink()
	var sink telemetry.Sink = memSink
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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
		sink = telemetry.Multi(memSink, telemetry.NewInfluxSink(influxClient))
	} else {
		log.Info("InfluxDB disabled, telemetry kept in memory only")
	}

	// Build enabled transports. Registration order matters: the merge keeps
	// the last writer per device, so the local transport registers after
	// cloud to win display-field conflicts.
	var transports []transport.Transport

	if cfg.Cloud.Enabled {
		cloud := cloudapi.New(cfg.Cloud)
		transports = append(transports, cloud)
		log.Info("cloud transport enabled",
			"base_url", cfg.Cloud.BaseURL,
			"priority", cfg.Cloud.Priority,
		)
	} else {
		log.Info("cloud transport disabled")
	}

	if cfg.Local.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		local := localnet.New(cfg.Local, cfg.MQTT.QoS, mqttClient)
		if startErr := local.Start(); startErr != nil {
			return fmt.Errorf("starting local transport: %w", startErr)
		}
		defer func() {
			log.Info("stopping local transport")
			if stopErr := local.Stop(); stopErr != nil {
				log.Error("error stopping local transport", "error", stopErr)
			}
		}()
		transports = append(transports, local)
		log.Info("local transport enabled",
			"agent_id", cfg.Local.AgentID,
			"priority", cfg.Local.Priority,
		)
	} else {
		log.Info("local transport disabled")
	}

	if len(transports) == 0 {
		return fmt.Errorf("no transports enabled, nothing to orchestrate")
	}

	// Orchestrator
	orch := transport.NewOrchestrator(transports...)
	orch.SetLogger(log)
	for _, desc := range orch.Descriptors() {
		log.Info("transport registered",
			"kind", desc.Kind,
			"label", desc.Label,
			"priority", desc.Priority,
		)
	}

	// Device service with catalogue cache and snapshot persistence
	devices := lighting.NewService(orch, cfg.DeviceTTL())
	devices.SetLogger(log)
	devices.SetSink(sink)
	devices.SetStore(lighting.NewSnapshotStore(db))
	defer devices.Close()

	// Warm the catalogue from the last persisted snapshot so the API can
	// answer immediately after restart, then kick off a live discovery.
	warmCtx, warmCancel := context.WithTimeout(ctx, warmupTimeout)
	if warmErr := devices.WarmFromSnapshot(warmCtx); warmErr != nil {
		log.Info("no catalogue snapshot to warm from", "reason", warmErr)
	} else {
		log.Info("catalogue warmed from snapshot")
	}
	if _, _, discErr := devices.Discover(warmCtx, true); discErr != nil {
		log.Warn("initial discovery failed, serving snapshot until transports recover",
			"error", discErr,
		)
	}
	warmCancel()

	// Transport health service with background refresh
	healthSvc := health.NewService(orch)
	healthSvc.SetLogger(log)
	healthSvc.SetSink(sink)
	if interval := cfg.HealthRefreshInterval(); interval > 0 {
		go healthSvc.Run(ctx, interval)
		log.Info("health refresh loop started", "interval", interval)
	} else {
		log.Info("background health refresh disabled")
	}

	// HTTP API
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		Logger:    log.With("component", "api"),
		Devices:   devices,
		Health:    healthSvc,
		Telemetry: memSink,
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

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, local transport, MQTT, InfluxDB, device service, database.

	log.Info("Lumina Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMINA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMINA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
