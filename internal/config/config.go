// Package config provides application configuration management.
// Configuration is loaded once from environment variables at process start
// and treated as immutable afterwards.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Entity store (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Optional Redis for cross-process export locks.
	// Empty means in-process locking only.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Root of the exported JSON tree
	OutputDirectory string `env:"MUCKAMUCK_OUTPUT_DIRECTORY,required,notEmpty"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Export pipeline
	ExportLockTTL       time.Duration `env:"EXPORT_LOCK_TTL" envDefault:"30s"`
	ExportRetryAttempts int           `env:"EXPORT_RETRY_ATTEMPTS" envDefault:"3"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasRedis reports whether a Redis URL was configured.
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	if c.ExportRetryAttempts < 1 {
		return fmt.Errorf("EXPORT_RETRY_ATTEMPTS must be at least 1, got %d", c.ExportRetryAttempts)
	}
	if c.ExportLockTTL <= 0 {
		return fmt.Errorf("EXPORT_LOCK_TTL must be positive, got %s", c.ExportLockTTL)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
