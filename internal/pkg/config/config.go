package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Backend        *BackendConfig
	Mqtt           *MqttConfig
	LogLevel       string `env:"LOG_LEVEL" envDefault:"INFO"`
	ResyncSchedule string `env:"RESYNC_SCHEDULE" envDefault:"@every 1h"`
	StatusAddr     string `env:"STATUS_ADDR" envDefault:"0.0.0.0:8000"`
}

type BackendConfig struct {
	Host        string        `env:"GLOW_HOST"`
	Ssl         bool          `env:"GLOW_SSL"`
	EntryID     string        `env:"GLOW_ENTRY_ID"`
	CallTimeout time.Duration `env:"GLOW_CALL_TIMEOUT" envDefault:"10s"`
}

type MqttConfig struct {
	Host           string        `env:"MQTT_HOST"`
	Username       string        `env:"MQTT_USER"`
	Password       string        `env:"MQTT_PASS"`
	ConnectTimeout time.Duration `env:"MQTT_CONNECT_TIMEOUT" envDefault:"5s"`
}

// FromEnv builds a config purely from the environment, for deployments
// that skip the CLI flags.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Backend: &BackendConfig{},
		Mqtt:    &MqttConfig{},
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg.Backend); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg.Mqtt); err != nil {
		return nil, err
	}
	return cfg, nil
}
