// Package config provides configuration management for the labeling
// service: a typed Config loaded once from the environment at process
// start and threaded explicitly through constructors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Batch    BatchConfig
}

// ServerConfig holds the HTTP control-surface configuration.
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig points at the embedded sqlite file backing the store.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// BatchConfig holds the batch defaults (loaded and validated here), the
// directory batch_errors.log is appended under, and the provider settings
// file path. The batch-start handler does not read DefaultConcurrency or
// DefaultTimeoutMS: a request that omits those fields gets the batch
// package's normalization (concurrency 1, timeout 1000 ms).
type BatchConfig struct {
	DefaultConcurrency int
	DefaultTimeoutMS   int
	LogDir             string
	SettingsPath       string
}

// Load loads the configuration from environment variables, falling back
// to a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SMSLABEL_PORT", 8585),
			Host:            getEnv("SMSLABEL_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SMSLABEL_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SMSLABEL_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SMSLABEL_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("SMSLABEL_DB_PATH", "./data/smslabel.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("SMSLABEL_LOG_LEVEL", "info"),
			Format: getEnv("SMSLABEL_LOG_FORMAT", "json"),
		},
		Batch: BatchConfig{
			DefaultConcurrency: getEnvAsInt("SMSLABEL_BATCH_CONCURRENCY", 4),
			DefaultTimeoutMS:   getEnvAsInt("SMSLABEL_BATCH_TIMEOUT_MS", 15000),
			LogDir:             getEnv("SMSLABEL_LOG_DIR", "./data"),
			SettingsPath:       getEnv("SMSLABEL_SETTINGS_PATH", "./data/settings.json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants Load cannot express through defaults
// alone.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}
	if c.Batch.DefaultConcurrency < 1 || c.Batch.DefaultConcurrency > 8 {
		return fmt.Errorf("batch default concurrency must be in [1,8]")
	}
	if c.Batch.DefaultTimeoutMS < 1000 {
		return fmt.Errorf("batch default timeout must be at least 1000ms")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
