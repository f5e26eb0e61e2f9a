package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Alerting.TopicPrefix != "smart_home" {
		t.Errorf("TopicPrefix = %q, want %q", cfg.Alerting.TopicPrefix, "smart_home")
	}
	if cfg.CooldownWindow() != 60*time.Second {
		t.Errorf("CooldownWindow() = %v, want 60s", cfg.CooldownWindow())
	}
	if cfg.SweepInterval() != 5*time.Minute {
		t.Errorf("SweepInterval() = %v, want 5m", cfg.SweepInterval())
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if !cfg.Database.WALMode {
		t.Error("Database.WALMode should default to true")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "broker.example.com"
    port: 8883
    tls: true
alerting:
  topic_prefix: "factory"
  cooldown_seconds: 120
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.example.com" {
		t.Errorf("Broker.Host = %q", cfg.MQTT.Broker.Host)
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("Broker.TLS should be true")
	}
	if cfg.Alerting.TopicPrefix != "factory" {
		t.Errorf("TopicPrefix = %q, want %q", cfg.Alerting.TopicPrefix, "factory")
	}
	if cfg.CooldownWindow() != 2*time.Minute {
		t.Errorf("CooldownWindow() = %v, want 2m", cfg.CooldownWindow())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "from-file"
`)

	t.Setenv("SMARTHIVE_MQTT_HOST", "from-env")
	t.Setenv("SMARTHIVE_MQTT_PORT", "2883")
	t.Setenv("SMARTHIVE_MQTT_TOPIC_PREFIX", "env_prefix")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "from-env" {
		t.Errorf("Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "from-env")
	}
	if cfg.MQTT.Broker.Port != 2883 {
		t.Errorf("Broker.Port = %d, want 2883", cfg.MQTT.Broker.Port)
	}
	if cfg.Alerting.TopicPrefix != "env_prefix" {
		t.Errorf("TopicPrefix = %q, want %q", cfg.Alerting.TopicPrefix, "env_prefix")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "invalid qos",
			mutate: func(c *Config) { c.MQTT.QoS = 3 },
			want:   "mqtt.qos",
		},
		{
			name:   "wildcard prefix",
			mutate: func(c *Config) { c.Alerting.TopicPrefix = "smart_home/#" },
			want:   "alerting.topic_prefix",
		},
		{
			name:   "zero cooldown",
			mutate: func(c *Config) { c.Alerting.CooldownSeconds = 0 },
			want:   "alerting.cooldown_seconds",
		},
		{
			name:   "negative sweep interval",
			mutate: func(c *Config) { c.Alerting.SweepIntervalSeconds = -1 },
			want:   "alerting.sweep_interval_seconds",
		},
		{
			name:   "empty database path",
			mutate: func(c *Config) { c.Database.Path = "" },
			want:   "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
