// IoT Connect Core - device provisioning and credential issuance.
//
// This is the main entry point. It loads configuration, opens the SQLite
// store, connects the optional MQTT and InfluxDB integrations and serves
// the HTTP API until an interrupt or SIGTERM arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/nerrad567/iotconnect-core/migrations"

	"github.com/nerrad567/iotconnect-core/internal/api"
	"github.com/nerrad567/iotconnect-core/internal/audit"
	"github.com/nerrad567/iotconnect-core/internal/auth"
	"github.com/nerrad567/iotconnect-core/internal/controllable"
	"github.com/nerrad567/iotconnect-core/internal/device"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/config"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/database"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/logging"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/iotconnect-core/internal/notify"
	"github.com/nerrad567/iotconnect-core/internal/presence"
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

// dotEnvPath is the optional environment file read before config loading.
const dotEnvPath = ".env"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	if err := loadDotEnv(dotEnvPath); err != nil {
		log.Warn("ignoring unreadable .env file", "error", err)
	}

	log.Info("starting IoT Connect Core",
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
		"level", cfg.Logging.Level,
	)

	db, err := database.Open(ctx, database.Config{
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

	db.SetLogger(log.With("component", "database"))
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// InfluxDB (optional) records presence history.
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
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Verification mail
	dispatcher := notify.NewDispatcher(newNotifier(cfg.Email, log), cfg.Email.Timeout)
	dispatcher.SetLogger(log.With("component", "notify"))
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Email.Timeout)
		defer closeCancel()
		if closeErr := dispatcher.Close(closeCtx); closeErr != nil {
			log.Warn("pending verification mail abandoned", "error", closeErr)
		}
	}()

	authService := auth.NewService(
		auth.NewUserRepository(db.DB),
		auth.NewVerificationRepository(db.DB),
		auth.NewSessions(cfg.Security.JWT.Secret, cfg.Security.JWT.SessionTTL),
		dispatcher,
		auth.ServiceConfig{VerificationTTL: cfg.Security.Verification.TTL},
	)
	authService.SetLogger(log.With("component", "auth"))

	devices := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	devices.SetLogger(log.With("component", "device"))
	if influxClient != nil {
		devices.AddPresenceRecorder(presence.NewRecorder(influxClient))
	}

	controllables := controllable.NewRegistry(
		controllable.NewSQLiteRepository(db.DB),
		controllable.NewCategoryRepository(db.DB),
		devices,
	)
	controllables.SetLogger(log.With("component", "controllable"))

	// MQTT (optional) carries the service status and presence messages.
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		topics := mqtt.Topics{Prefix: cfg.Presence.TopicPrefix}
		mqttClient, err = mqtt.Connect(cfg.MQTT, topics)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
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

		devices.AddPresenceRecorder(presence.NewAnnouncer(mqttClient, topics, byte(cfg.MQTT.QoS))) //nolint:gosec // validated to 0-2

		if cfg.Presence.Enabled {
			listener := presence.NewListener(mqttClient, devices, presence.Config{
				Topics:  topics,
				QoS:     byte(cfg.Presence.QoS), //nolint:gosec // validated to 0-2
				Timeout: cfg.GetOperationTimeout(),
			})
			listener.SetLogger(log.With("component", "presence"))
			if startErr := listener.Start(); startErr != nil {
				return fmt.Errorf("starting presence listener: %w", startErr)
			}
			defer func() {
				if stopErr := listener.Stop(); stopErr != nil {
					log.Warn("error stopping presence listener", "error", stopErr)
				}
			}()
			log.Info("presence listener started", "topic", topics.AllDevicePresence())
		}
	} else {
		log.Info("MQTT disabled")
	}

	check := func(ctx context.Context) error {
		return healthCheck(ctx, db, mqttClient, influxClient)
	}

	server, err := api.New(api.Deps{
		Config:        cfg.API,
		Security:      cfg.Security,
		Logger:        log.With("component", "api"),
		Auth:          authService,
		Devices:       devices,
		Controllables: controllables,
		Audit:         audit.NewSQLiteRepository(db.DB),
		HealthCheck:   check,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := check(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred closes run in reverse: API server, presence listener, MQTT,
	// mail dispatcher, InfluxDB, database.
	return nil
}

// loadDotEnv reads path into the environment. A missing file is normal in
// production and is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// getConfigPath returns IOTCONNECT_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("IOTCONNECT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// newNotifier picks the SMTP notifier when mail is enabled. Otherwise
// verifications are only logged, with the token shown only when
// email.log_tokens is set.
func newNotifier(cfg config.EmailConfig, log *logging.Logger) notify.Notifier {
	if !cfg.Enabled {
		if cfg.LogTokens {
			log.Warn("email disabled and email.log_tokens set: raw verification tokens are logged, do not use in production")
		} else {
			log.Warn("email disabled, verification tokens are not delivered")
		}
		return notify.NewLogNotifier(log.With("component", "notify"), cfg.LogTokens)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT and InfluxDB clients may be nil when disabled.
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
