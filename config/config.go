// Package config loads septd configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds all process configuration.
type Config struct {
	// Server
	Addr            string        `env:"ADDR" envDefault:":8080" validate:"required"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`

	// Logging
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development staging production"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// Metrics
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics" validate:"startswith=/"`
	Namespace   string `env:"METRICS_NAMESPACE" envDefault:"sept" validate:"required,alphanum"`

	// Greeter example
	Greeting string `env:"GREETING" envDefault:"hello" validate:"required"`
}

// Prefix is prepended to every variable name, e.g. SEPT_ADDR.
const Prefix = "SEPT_"

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses vars instead of the process environment when vars is non-nil.
func LoadFrom(vars map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{Prefix: Prefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsProduction reports whether the production logging profile applies.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
