package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for SmartHive Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database Database `yaml:"database"`
	MQTT     MQTT     `yaml:"mqtt"`
	InfluxDB InfluxDB `yaml:"influxdb"`
	Firebase Firebase `yaml:"firebase"`
	Alerting Alerting `yaml:"alerting"`
	Logging  Logging  `yaml:"logging"`
}

// Database contains SQLite database settings.
type Database struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTT contains MQTT broker connection settings.
type MQTT struct {
	Broker    MQTTBroker    `yaml:"broker"`
	Auth      MQTTAuth      `yaml:"auth"`
	QoS       int           `yaml:"qos"`
	Reconnect MQTTReconnect `yaml:"reconnect"`
}

// MQTTBroker contains MQTT broker connection details.
type MQTTBroker struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuth contains MQTT authentication credentials.
type MQTTAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnect contains MQTT reconnection settings.
type MQTTReconnect struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDB contains InfluxDB connection settings for telemetry recording.
type InfluxDB struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Firebase contains Firebase Cloud Messaging settings for push notifications.
type Firebase struct {
	// CredentialsFile is the path to the service account key JSON file.
	CredentialsFile string `yaml:"credentials_file"`

	// AndroidChannelID is the notification channel used by the mobile app.
	// Must match the channel registered client-side.
	AndroidChannelID string `yaml:"android_channel_id"`
}

// Alerting contains alert pipeline settings.
type Alerting struct {
	// TopicPrefix is the root of the device topic tree (e.g. "smart_home").
	// Warnings arrive on {prefix}/{device_id}/warning.
	TopicPrefix string `yaml:"topic_prefix"`

	// CooldownSeconds is the minimum time between two dispatches for the
	// same device and alert category.
	CooldownSeconds int `yaml:"cooldown_seconds"`

	// SweepIntervalSeconds is how often expired cooldown entries are evicted.
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`

	// MaxConcurrent bounds the number of warning messages processed at once.
	MaxConcurrent int `yaml:"max_concurrent"`

	// DispatchTimeoutSeconds bounds the recipient lookup and push provider
	// call for a single event.
	DispatchTimeoutSeconds int `yaml:"dispatch_timeout_seconds"`
}

// Logging contains logging settings.
type Logging struct {
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
// Environment variables follow the pattern: SMARTHIVE_SECTION_KEY
// For example: SMARTHIVE_DATABASE_PATH, SMARTHIVE_MQTT_HOST
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

// Default cooldown pipeline values. The one-minute window and five-minute
// sweep match the behaviour device firmware was tuned against.
const (
	defaultCooldownSeconds        = 60
	defaultSweepIntervalSeconds   = 300
	defaultMaxConcurrent          = 16
	defaultDispatchTimeoutSeconds = 30
)

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: Database{
			Path:        "./data/smarthive.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTT{
			Broker: MQTTBroker{
				Host:     "localhost",
				Port:     1883,
				ClientID: "smarthive-core",
			},
			QoS: 0,
			Reconnect: MQTTReconnect{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Firebase: Firebase{
			CredentialsFile:  "./serviceAccountKey.json",
			AndroidChannelID: "smart_home_alerts",
		},
		Alerting: Alerting{
			TopicPrefix:            "smart_home",
			CooldownSeconds:        defaultCooldownSeconds,
			SweepIntervalSeconds:   defaultSweepIntervalSeconds,
			MaxConcurrent:          defaultMaxConcurrent,
			DispatchTimeoutSeconds: defaultDispatchTimeoutSeconds,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SMARTHIVE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("SMARTHIVE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("SMARTHIVE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SMARTHIVE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("SMARTHIVE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SMARTHIVE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("SMARTHIVE_MQTT_TOPIC_PREFIX"); v != "" {
		cfg.Alerting.TopicPrefix = v
	}

	// InfluxDB
	if v := os.Getenv("SMARTHIVE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Firebase
	if v := os.Getenv("SMARTHIVE_FIREBASE_CREDENTIALS"); v != "" {
		cfg.Firebase.CredentialsFile = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	// Alerting validation
	if c.Alerting.TopicPrefix == "" {
		errs = append(errs, "alerting.topic_prefix is required")
	}
	if strings.ContainsAny(c.Alerting.TopicPrefix, "+#") {
		errs = append(errs, "alerting.topic_prefix must not contain MQTT wildcards")
	}
	if c.Alerting.CooldownSeconds <= 0 {
		errs = append(errs, "alerting.cooldown_seconds must be positive")
	}
	if c.Alerting.SweepIntervalSeconds <= 0 {
		errs = append(errs, "alerting.sweep_interval_seconds must be positive")
	}
	if c.Alerting.MaxConcurrent <= 0 {
		errs = append(errs, "alerting.max_concurrent must be positive")
	}

	// Firebase validation
	if c.Firebase.CredentialsFile == "" {
		errs = append(errs, "firebase.credentials_file is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CooldownWindow returns the alert suppression window as a Duration.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.Alerting.CooldownSeconds) * time.Second
}

// SweepInterval returns the janitor sweep interval as a Duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Alerting.SweepIntervalSeconds) * time.Second
}

// DispatchTimeout returns the per-event collaborator timeout as a Duration.
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.Alerting.DispatchTimeoutSeconds) * time.Second
}
