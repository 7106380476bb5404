package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Lumina Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Cloud    CloudConfig    `yaml:"cloud"`
	Local    LocalConfig    `yaml:"local"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Cache    CacheConfig    `yaml:"cache"`
	Health   HealthConfig   `yaml:"health"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig contains instance identification.
type ServiceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// CloudConfig contains settings for the cloud HTTP transport.
type CloudConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Label   string `yaml:"label"`
	// Priority orders the transport for command routing; lower is tried first.
	Priority int `yaml:"priority"`
	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// LocalConfig contains settings for the local-network transport.
type LocalConfig struct {
	Enabled bool   `yaml:"enabled"`
	AgentID string `yaml:"agent_id"`
	Label   string `yaml:"label"`
	// Priority orders the transport for command routing; lower is tried first.
	Priority int `yaml:"priority"`
	// Timeout is the per-request round-trip timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the local transport.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains SQLite catalogue snapshot settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains telemetry sink connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// CacheConfig contains device catalogue caching settings.
type CacheConfig struct {
	// DeviceTTL is how long a merged discovery result stays fresh (seconds).
	DeviceTTL int `yaml:"device_ttl"`
}

// HealthConfig contains transport health refresh settings.
type HealthConfig struct {
	// RefreshInterval is the background health refresh cadence (seconds).
	// 0 disables the background loop; health is then refreshed on demand only.
	RefreshInterval int `yaml:"refresh_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
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
// Environment variables follow the pattern: LUMINA_SECTION_KEY
// For example: LUMINA_CLOUD_TOKEN, LUMINA_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ID:   "lumina-001",
			Name: "Lumina Core",
		},
		Cloud: CloudConfig{
			Enabled:  true,
			Label:    "Cloud API",
			Priority: 10,
			Timeout:  10,
		},
		Local: LocalConfig{
			Enabled:  true,
			AgentID:  "lan-agent",
			Label:    "Local network",
			Priority: 5,
			Timeout:  3,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lumina-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/lumina.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Cache: CacheConfig{
			DeviceTTL: 60,
		},
		Health: HealthConfig{
			RefreshInterval: 30,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
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
// Environment variables follow the pattern: LUMINA_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cloud transport
	if v := os.Getenv("LUMINA_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}
	if v := os.Getenv("LUMINA_CLOUD_TOKEN"); v != "" {
		cfg.Cloud.Token = v
	}

	// MQTT
	if v := os.Getenv("LUMINA_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LUMINA_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LUMINA_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("LUMINA_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("LUMINA_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("LUMINA_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("LUMINA_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Service validation
	if c.Service.ID == "" {
		errs = append(errs, "service.id is required")
	}

	// At least one transport must be enabled or the core has nothing to route to
	if !c.Cloud.Enabled && !c.Local.Enabled {
		errs = append(errs, "at least one of cloud.enabled or local.enabled must be true")
	}

	// Cloud validation
	if c.Cloud.Enabled && c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required when cloud.enabled is true")
	}

	// Local validation
	if c.Local.Enabled && c.Local.AgentID == "" {
		errs = append(errs, "local.agent_id is required when local.enabled is true")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Cache validation
	if c.Cache.DeviceTTL <= 0 {
		errs = append(errs, "cache.device_ttl must be positive")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DeviceTTL returns the device cache TTL as a Duration.
func (c *Config) DeviceTTL() time.Duration {
	return time.Duration(c.Cache.DeviceTTL) * time.Second
}

// HealthRefreshInterval returns the health refresh cadence as a Duration.
func (c *Config) HealthRefreshInterval() time.Duration {
	return time.Duration(c.Health.RefreshInterval) * time.Second
}

// RequestTimeout returns the per-request HTTP timeout as a Duration.
func (c CloudConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RequestTimeout returns the per-request round-trip timeout as a Duration.
func (c LocalConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ReadTimeout returns the HTTP read timeout as a Duration.
func (c APIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// WriteTimeout returns the HTTP write timeout as a Duration.
func (c APIConfig) WriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// IdleTimeout returns the HTTP idle timeout as a Duration.
func (c APIConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
