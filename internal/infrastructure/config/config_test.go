package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testSecret meets the 32-character minimum for both secrets.
const testSecret = "test-secret-key-at-least-32-chars!"

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.ServiceKey = testSecret
	cfg.Security.JWT.Secret = testSecret
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
api:
  port: 9090
security:
  service_key: "test-secret-key-at-least-32-chars!"
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
    session_ttl: 12h
  verification:
    ttl: 10m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Security.JWT.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want 12h", cfg.Security.JWT.SessionTTL)
	}
	if cfg.Security.Verification.TTL != 10*time.Minute {
		t.Errorf("Verification.TTL = %v, want 10m", cfg.Security.Verification.TTL)
	}
	// Untouched sections keep their defaults.
	if cfg.API.Timeouts.Operation != 5 {
		t.Errorf("Timeouts.Operation = %d, want 5", cfg.API.Timeouts.Operation)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() expected validation error without secrets, got nil")
	}
}

func TestLoad_EnvSuppliesSecrets(t *testing.T) {
	t.Setenv("IOTCONNECT_SERVICE_KEY", testSecret)
	t.Setenv("IOTCONNECT_JWT_SECRET", testSecret)
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.ServiceKey != testSecret {
		t.Errorf("ServiceKey = %q, want env value", cfg.Security.ServiceKey)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid presence QoS", mutate: func(c *Config) { c.Presence.QoS = -1 }, wantErr: true},
		{name: "presence without mqtt", mutate: func(c *Config) { c.Presence.Enabled = true }, wantErr: true},
		{
			name: "presence with mqtt",
			mutate: func(c *Config) {
				c.Presence.Enabled = true
				c.MQTT.Enabled = true
			},
		},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "zero operation timeout", mutate: func(c *Config) { c.API.Timeouts.Operation = 0 }, wantErr: true},
		{name: "missing service key", mutate: func(c *Config) { c.Security.ServiceKey = "" }, wantErr: true},
		{name: "service key too short", mutate: func(c *Config) { c.Security.ServiceKey = "short" }, wantErr: true},
		{name: "missing JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "zero session TTL", mutate: func(c *Config) { c.Security.JWT.SessionTTL = 0 }, wantErr: true},
		{name: "zero verification TTL", mutate: func(c *Config) { c.Security.Verification.TTL = 0 }, wantErr: true},
		{name: "email without host", mutate: func(c *Config) { c.Email.Enabled = true; c.Email.From = "a@b.c" }, wantErr: true},
		{name: "email without from", mutate: func(c *Config) { c.Email.Enabled = true; c.Email.Host = "smtp" }, wantErr: true},
		{
			name: "log tokens in development",
			mutate: func(c *Config) {
				c.Email.LogTokens = true
				c.Logging.Level = "debug"
			},
		},
		{
			name: "log tokens with email enabled",
			mutate: func(c *Config) {
				c.Email = EmailConfig{Enabled: true, Host: "smtp", From: "a@b.c", LogTokens: true}
				c.Logging.Level = "debug"
			},
			wantErr: true,
		},
		{name: "log tokens without debug level", mutate: func(c *Config) { c.Email.LogTokens = true; c.Logging.Level = "info" }, wantErr: true},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60, Operation: 3},
		},
	}

	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 45*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 45s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.GetOperationTimeout(); got != 3*time.Second {
		t.Errorf("GetOperationTimeout() = %v, want 3s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("IOTCONNECT_DATABASE_PATH", "/custom/path.db")
	t.Setenv("IOTCONNECT_MQTT_HOST", "mqtt.example.com")
	t.Setenv("IOTCONNECT_MQTT_PORT", "8883")
	t.Setenv("IOTCONNECT_MQTT_USERNAME", "testuser")
	t.Setenv("IOTCONNECT_MQTT_PASSWORD", "testpass")
	t.Setenv("IOTCONNECT_API_HOST", "192.168.1.1")
	t.Setenv("IOTCONNECT_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("IOTCONNECT_EMAIL_ENABLED", "true")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v, want testuser/testpass", cfg.MQTT.Auth)
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if !cfg.Email.Enabled {
		t.Error("Email.Enabled should be true")
	}
	// Fields without a variable keep their value.
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
}

func TestApplyEnvOverrides_NoneSet(t *testing.T) {
	cfg := defaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Errorf("applyEnvOverrides() with no variables error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Security.JWT.SessionTTL != 24*time.Hour {
		t.Errorf("defaultConfig SessionTTL = %v, want 24h", cfg.Security.JWT.SessionTTL)
	}
	if cfg.Presence.TopicPrefix != "iotconnect" {
		t.Errorf("defaultConfig Presence.TopicPrefix = %q, want iotconnect", cfg.Presence.TopicPrefix)
	}
}
