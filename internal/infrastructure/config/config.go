package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the BeoLink bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Backend   BackendConfig   `yaml:"backend"`
	HIP       HIPConfig       `yaml:"hip"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Filter    FilterConfig    `yaml:"filter"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig describes the installation the bridge presents to B&O devices.
type SiteConfig struct {
	Name         string         `yaml:"name"`
	SerialNumber string         `yaml:"serial_number"`
	Installer    InstallerInfo  `yaml:"installer"`
	Location     LocationConfig `yaml:"location"`
}

// InstallerInfo is reported verbatim in the services document.
type InstallerInfo struct {
	Name    string `yaml:"name"`
	Contact string `yaml:"contact"`
}

// LocationConfig contains the geographic centre reported to B&O apps.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Radius    float64 `yaml:"radius"`
}

// BackendConfig contains home-automation backend connection settings.
type BackendConfig struct {
	// URL is the base HTTP URL of the backend (e.g. "http://homeassistant:8123").
	// The WebSocket endpoint is derived from it.
	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	// Reconnect delays in seconds for the WebSocket connection.
	ReconnectInitial int `yaml:"reconnect_initial"`
	ReconnectMax     int `yaml:"reconnect_max"`
}

// HIPConfig contains the line-oriented TCP protocol server settings.
type HIPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// QueueSize bounds the per-session outbound line queue. A session
	// that cannot drain its queue is disconnected.
	QueueSize int `yaml:"queue_size"`
}

// HTTPConfig contains HTTP API server settings.
type HTTPConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	TLS      TLSConfig         `yaml:"tls"`
	Timeouts HTTPTimeoutConfig `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// HTTPTimeoutConfig contains HTTP timeout settings in seconds.
// The write timeout applies to the plain API routes only; camera
// streams run on a route that disables it.
type HTTPTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// AuthConfig contains credential and HTTP session settings.
//
// Users are the accounts B&O devices log in with, over both the TCP
// handshake and HTTP Basic auth. Sessions issued over HTTP are signed
// with Secret and recorded in the database.
type AuthConfig struct {
	Users      []UserConfig `yaml:"users"`
	Secret     string       `yaml:"secret"`
	SessionTTL int          `yaml:"session_ttl"` // minutes
}

// UserConfig is a single login account.
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// FilterConfig controls which backend entities are exposed.
//
// Mode "include" exposes only the listed entity IDs, "exclude" exposes
// everything except the listed IDs. An empty mode exposes everything.
type FilterConfig struct {
	Mode     string   `yaml:"mode"`
	Entities []string `yaml:"entities"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains settings for the optional state mirror.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// TelemetryConfig contains InfluxDB connection settings for optional
// operational telemetry.
type TelemetryConfig struct {
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

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BEOBRIDGE_SECTION_KEY
// For example: BEOBRIDGE_BACKEND_TOKEN, BEOBRIDGE_DATABASE_PATH
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
//
// The TCP port defaults to 9100 because B&O devices discover the
// gateway there and the port is not configurable on their side.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name:         "BeoLink Bridge",
			SerialNumber: "00000000",
		},
		Backend: BackendConfig{
			URL:              "http://localhost:8123",
			ReconnectInitial: 1,
			ReconnectMax:     60,
		},
		HIP: HIPConfig{
			Host:      "0.0.0.0",
			Port:      9100,
			QueueSize: 256,
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8180,
			Timeouts: HTTPTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Auth: AuthConfig{
			SessionTTL: 1440,
		},
		Database: DatabaseConfig{
			Path:        "./data/beobridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "beobridge",
			},
			QoS:         1,
			TopicPrefix: "beobridge",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BEOBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BEOBRIDGE_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("BEOBRIDGE_BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("BEOBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BEOBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("BEOBRIDGE_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
	if v := os.Getenv("BEOBRIDGE_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}

	// Session secret (IMPORTANT: always override in production)
	if v := os.Getenv("BEOBRIDGE_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.SerialNumber == "" {
		errs = append(errs, "site.serial_number is required")
	}

	if c.Backend.URL == "" {
		errs = append(errs, "backend.url is required")
	}

	if c.HIP.Port < 1 || c.HIP.Port > 65535 {
		errs = append(errs, "hip.port must be between 1 and 65535")
	}
	if c.HIP.QueueSize < 1 {
		errs = append(errs, "hip.queue_size must be positive")
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, "http.port must be between 1 and 65535")
	}

	if len(c.Auth.Users) == 0 {
		errs = append(errs, "auth.users must contain at least one account")
	}
	for _, u := range c.Auth.Users {
		if u.Username == "" || u.Password == "" {
			errs = append(errs, "auth.users entries require username and password")
			break
		}
	}

	// The session secret signs HTTP session cookies. Empty or weak
	// secrets would allow forged sessions with control over physical
	// devices, so a minimum length is enforced.
	const minSecretLength = 32
	if c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required (set BEOBRIDGE_AUTH_SECRET environment variable)")
	} else if len(c.Auth.Secret) < minSecretLength {
		errs = append(errs, "auth.secret must be at least 32 characters")
	}

	switch c.Filter.Mode {
	case "", "include", "exclude":
	default:
		errs = append(errs, "filter.mode must be \"include\", \"exclude\" or empty")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Idle) * time.Second
}

// GetSessionTTL returns the HTTP session lifetime as a Duration.
func (c *Config) GetSessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTL) * time.Minute
}
