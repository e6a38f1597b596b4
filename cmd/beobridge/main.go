// BeoLink Bridge
//
// Emulates a Bang & Olufsen BeoLink Gateway on top of a Home Assistant
// backend: B&O remotes, apps and TVs discover the bridge, enumerate the
// home's lights, covers, thermostats, alarms, AV renderers and scenes,
// and control them over the gateway's TCP protocol and HTTP/JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/beolink-bridge/internal/auth"
	"github.com/nerrad567/beolink-bridge/internal/backend/hass"
	"github.com/nerrad567/beolink-bridge/internal/blgw"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/hipserver"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/database"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/telemetry"
	"github.com/nerrad567/beolink-bridge/internal/mirror"
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

// sessionSweepInterval is how often expired HTTP sessions are purged.
const sessionSweepInterval = time.Hour

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
	log.Info("starting BeoLink Bridge",
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
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database (browser/app session persistence)
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

	// HTTP session store
	sessions, err := auth.NewStore(ctx, db, cfg.Auth.Secret, cfg.GetSessionTTL())
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	sessions.SetLogger(log)
	sessions.StartSweeper(ctx, sessionSweepInterval)

	// Connect to the Home Assistant backend
	gateway, err := hass.Connect(ctx, cfg.Backend, cfg.Auth.Users)
	if err != nil {
		return fmt.Errorf("connecting to backend: %w", err)
	}
	defer func() {
		log.Info("disconnecting from backend")
		if closeErr := gateway.Close(); closeErr != nil {
			log.Error("error closing backend connection", "error", closeErr)
		}
	}()
	gateway.SetLogger(log)
	log.Info("backend connected", "url", cfg.Backend.URL)

	// Shared protocol-translation core
	builder := catalog.NewBuilder(gateway,
		catalog.NewFilter(cfg.Filter.Mode, cfg.Filter.Entities),
		catalog.NewSourceCache(),
	)
	builder.SetLogger(log)

	translator := command.NewTranslator()
	translator.SetLogger(log)

	// Telemetry (optional)
	var telemetryClient *telemetry.Client
	if cfg.Telemetry.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.Telemetry)
		if err != nil && !errors.Is(err, telemetry.ErrDisabled) {
			return fmt.Errorf("connecting telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		telemetryClient.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
		log.Info("telemetry connected", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	} else {
		log.Info("telemetry disabled")
	}

	// MQTT state mirror (optional)
	if cfg.MQTT.Enabled {
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
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		stateMirror, mirrorErr := mirror.New(mirror.Deps{
			Broker:     mqttClient,
			Gateway:    gateway,
			Builder:    builder,
			Translator: translator,
			QoS:        byte(cfg.MQTT.QoS),
			Logger:     log,
		})
		if mirrorErr != nil {
			return fmt.Errorf("creating state mirror: %w", mirrorErr)
		}
		if startErr := stateMirror.Start(ctx); startErr != nil {
			return fmt.Errorf("starting state mirror: %w", startErr)
		}
		defer func() {
			log.Info("stopping state mirror")
			if closeErr := stateMirror.Close(); closeErr != nil {
				log.Error("error closing state mirror", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT mirror disabled")
	}

	// Protocol server (TCP)
	hipServer, err := hipserver.New(hipserver.Deps{
		Config:     cfg.HIP,
		Gateway:    gateway,
		Builder:    builder,
		Translator: translator,
		Telemetry:  telemetryClient,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating protocol server: %w", err)
	}
	if startErr := hipServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting protocol server: %w", startErr)
	}
	defer func() {
		log.Info("stopping protocol server")
		if closeErr := hipServer.Close(); closeErr != nil {
			log.Error("error closing protocol server", "error", closeErr)
		}
	}()

	// HTTP server
	httpServer, err := blgw.New(blgw.Deps{
		Config:     cfg.HTTP,
		Site:       cfg.Site,
		Gateway:    gateway,
		Builder:    builder,
		Translator: translator,
		Sessions:   sessions,
		Telemetry:  telemetryClient,
		Logger:     log,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}
	if startErr := httpServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting http server: %w", startErr)
	}
	defer func() {
		log.Info("stopping http server")
		if closeErr := httpServer.Close(); closeErr != nil {
			log.Error("error closing http server", "error", closeErr)
		}
	}()

	// One health pass over the long-lived components now that
	// everything is up. Failures are logged, not fatal: each
	// component recovers on its own.
	components := map[string]healthChecker{
		"database": db,
		"backend":  gateway,
		"http":     httpServer,
	}
	if telemetryClient != nil {
		components["telemetry"] = telemetryClient
	}
	reportHealth(ctx, log, components)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// healthChecker is implemented by the bridge's long-lived components.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheckTimeout bounds the startup health pass.
const healthCheckTimeout = 5 * time.Second

// reportHealth checks each component once and logs the outcome.
func reportHealth(ctx context.Context, log *logging.Logger, components map[string]healthChecker) {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	for name, component := range components {
		if err := component.HealthCheck(checkCtx); err != nil {
			log.Warn("component unhealthy", "component", name, "error", err)
			continue
		}
		log.Debug("component healthy", "component", name)
	}
}

// getConfigPath returns the configuration file path.
// Uses BEOBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BEOBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
