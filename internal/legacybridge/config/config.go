package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/config"
)

// Config holds all configuration for the legacy bridge.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Dropzone
	DropzonePath string        `env:"DROPZONE_PATH" envDefault:"./dropzone"`
	PollInterval time.Duration `env:"DROPZONE_POLL_INTERVAL" envDefault:"5s"`

	// Orders service
	OrdersURL    string `env:"ORDERS_URL" envDefault:"http://localhost:3000"`
	AuthUsername string `env:"AUTH_USERNAME" envDefault:"admin"`
	AuthPassword string `env:"AUTH_PASSWORD" envDefault:"password"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load legacy bridge config: %w", err)
	}
	if cfg.DropzonePath == "" {
		return nil, fmt.Errorf("dropzone path must not be empty")
	}
	if cfg.PollInterval < time.Second {
		return nil, fmt.Errorf("poll interval must be at least 1s, got %s", cfg.PollInterval)
	}
	return cfg, nil
}
