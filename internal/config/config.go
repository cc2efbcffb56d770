package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`

	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"bank-customer-api"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"bank-customer-clients"`
	JWTTTLHours int    `env:"JWT_TTL_HOURS" envDefault:"24"`

	PasswordHashAlgorithm  string `env:"PASSWORD_HASH_ALGORITHM" envDefault:"hmac-sha512"`
	LockoutMaxFailures     int    `env:"LOCKOUT_MAX_FAILURES" envDefault:"5"`
	LockoutDurationMinutes int    `env:"LOCKOUT_DURATION_MINUTES" envDefault:"30"`

	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"storage": cfg.StorageDriver,
		"issuer":  cfg.JWTIssuer,
	}).Debug("configuration loaded")
	return cfg, nil
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)

	origins := c.CORSOrigins[:0]
	for _, o := range c.CORSOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.CORSOrigins = origins
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// TokenTTL converts JWT_TTL_HOURS into a duration.
func (c Config) TokenTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// LockDuration converts LOCKOUT_DURATION_MINUTES into a duration.
func (c Config) LockDuration() time.Duration {
	return time.Duration(c.LockoutDurationMinutes) * time.Minute
}

// Level parses LOG_LEVEL, defaulting to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
