package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

// Config holds process-level configuration read from the environment
type Config struct {
	// Logging
	LogLevel string
	LogJSON  bool

	// Run history (optional)
	DatabaseURL string

	// Generation events (optional)
	NATSURL string

	// Git identity used for commits of generated output
	GitAuthor string
	GitEmail  string

	// Concurrent file writes
	Workers int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:    getEnv("SDKGEN_LOG_LEVEL", "info"),
		LogJSON:     getEnvBool("SDKGEN_LOG_JSON", false),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		NATSURL:     getEnv("NATS_URL", ""),
		GitAuthor:   getEnv("SDKGEN_GIT_AUTHOR", "sdkgen"),
		GitEmail:    getEnv("SDKGEN_GIT_EMAIL", "sdkgen@localhost"),
		Workers:     getEnvInt("SDKGEN_WORKERS", 8),
	}

	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("SDKGEN_LOG_LEVEL: %w", err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("SDKGEN_WORKERS must be positive, got %d", c.Workers)
	}
	return nil
}

// Level returns the parsed log level, info when unparseable.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
