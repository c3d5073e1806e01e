package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds settings read from the environment. Command-line flags default
// to these values and override them.
type Config struct {
	LogLevel string `env:"PRDEMO_LOG_LEVEL" envDefault:"info"`
	Workers  int    `env:"PRDEMO_WORKERS" envDefault:"4"`
	NoColor  bool   `env:"PRDEMO_NO_COLOR" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("PRDEMO_WORKERS must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

// ParseEnv loads environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
