package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for IoT Connect Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
	Email    EmailConfig    `yaml:"email"`
	Presence PresenceConfig `yaml:"presence"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path" env:"IOTCONNECT_DATABASE_PATH"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled" env:"IOTCONNECT_MQTT_ENABLED"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" env:"IOTCONNECT_MQTT_HOST"`
	Port     int    `yaml:"port" env:"IOTCONNECT_MQTT_PORT"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" env:"IOTCONNECT_MQTT_USERNAME"`
	Password string `yaml:"password" env:"IOTCONNECT_MQTT_PASSWORD"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host" env:"IOTCONNECT_API_HOST"`
	Port     int              `yaml:"port" env:"IOTCONNECT_API_PORT"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
// Operation bounds the storage work done by a single request.
type APITimeoutConfig struct {
	Read      int `yaml:"read"`
	Write     int `yaml:"write"`
	Idle      int `yaml:"idle"`
	Operation int `yaml:"operation"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" env:"IOTCONNECT_INFLUXDB_ENABLED"`
	URL           string `yaml:"url" env:"IOTCONNECT_INFLUXDB_URL"`
	Token         string `yaml:"token" env:"IOTCONNECT_INFLUXDB_TOKEN"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"IOTCONNECT_LOG_LEVEL"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains the shared secrets and credential lifetimes.
type SecurityConfig struct {
	// ServiceKey is the shared secret every caller presents in the
	// Authorization header.
	ServiceKey   string             `yaml:"service_key" env:"IOTCONNECT_SERVICE_KEY"`
	JWT          JWTConfig          `yaml:"jwt"`
	Verification VerificationConfig `yaml:"verification"`
}

// JWTConfig contains session token settings.
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"IOTCONNECT_JWT_SECRET"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// VerificationConfig contains email verification settings.
type VerificationConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// EmailConfig contains the SMTP settings for verification mail.
// When disabled, verification tokens are only written to the debug log.
type EmailConfig struct {
	Enabled  bool          `yaml:"enabled" env:"IOTCONNECT_EMAIL_ENABLED"`
	Host     string        `yaml:"host" env:"IOTCONNECT_EMAIL_HOST"`
	Port     int           `yaml:"port" env:"IOTCONNECT_EMAIL_PORT"`
	Username string        `yaml:"username" env:"IOTCONNECT_EMAIL_USER"`
	Password string        `yaml:"password" env:"IOTCONNECT_EMAIL_PASS"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`

	// LogTokens writes raw verification tokens to the debug log while
	// email is disabled. Development only.
	LogTokens bool `yaml:"log_tokens" env:"IOTCONNECT_EMAIL_LOG_TOKENS"`
}

// PresenceConfig controls the MQTT presence listener.
type PresenceConfig struct {
	Enabled     bool   `yaml:"enabled" env:"IOTCONNECT_PRESENCE_ENABLED"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables are declared on the struct fields with `env` tags,
// for example IOTCONNECT_DATABASE_PATH or IOTCONNECT_SERVICE_KEY.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/iotconnect.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "iotconnect-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:      30,
				Write:     30,
				Idle:      60,
				Operation: 5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				SessionTTL: 24 * time.Hour,
			},
			Verification: VerificationConfig{
				TTL: 15 * time.Minute,
			},
		},
		Email: EmailConfig{
			Port:    587,
			Timeout: 10 * time.Second,
		},
		Presence: PresenceConfig{
			TopicPrefix: "iotconnect",
			QoS:         1,
		},
	}
}

// applyEnvOverrides decodes IOTCONNECT_* variables over the loaded values.
// Having none of them set is not an error.
func applyEnvOverrides(cfg *Config) error {
	err := envdecode.Decode(cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

// minSecretLength is the minimum length for the service key and JWT secret.
const minSecretLength = 32

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.Presence.QoS < 0 || c.Presence.QoS > 2 {
		errs = append(errs, "presence.qos must be 0, 1, or 2")
	}
	if c.Presence.Enabled && !c.MQTT.Enabled {
		errs = append(errs, "presence.enabled requires mqtt.enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.Timeouts.Operation <= 0 {
		errs = append(errs, "api.timeouts.operation must be positive")
	}

	// Both secrets gate every request; short values are brute-forceable.
	if c.Security.ServiceKey == "" {
		errs = append(errs, "security.service_key is required (set IOTCONNECT_SERVICE_KEY environment variable)")
	} else if len(c.Security.ServiceKey) < minSecretLength {
		errs = append(errs, "security.service_key must be at least 32 characters")
	}
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set IOTCONNECT_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}
	if c.Security.JWT.SessionTTL <= 0 {
		errs = append(errs, "security.jwt.session_ttl must be positive")
	}
	if c.Security.Verification.TTL <= 0 {
		errs = append(errs, "security.verification.ttl must be positive")
	}

	if c.Email.Enabled {
		if c.Email.Host == "" {
			errs = append(errs, "email.host is required when email is enabled")
		}
		if c.Email.From == "" {
			errs = append(errs, "email.from is required when email is enabled")
		}
	}

	if c.Email.LogTokens {
		if c.Email.Enabled {
			errs = append(errs, "email.log_tokens is a development option and cannot be combined with email.enabled")
		}
		if !strings.EqualFold(c.Logging.Level, "debug") {
			errs = append(errs, "email.log_tokens requires logging.level debug")
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetOperationTimeout returns the per-request storage timeout as a Duration.
func (c *Config) GetOperationTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Operation) * time.Second
}
