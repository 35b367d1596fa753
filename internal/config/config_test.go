package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Load_DefaultValues(t *testing.T) {
	clearEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, 8585, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "./data/smslabel.db", cfg.Database.Path)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 4, cfg.Batch.DefaultConcurrency)
	assert.Equal(t, 15000, cfg.Batch.DefaultTimeoutMS)
	assert.Equal(t, "./data", cfg.Batch.LogDir)
	assert.Equal(t, "./data/settings.json", cfg.Batch.SettingsPath)
}

func TestConfig_Load_CustomValues(t *testing.T) {
	clearEnv()

	os.Setenv("SMSLABEL_PORT", "9090")
	os.Setenv("SMSLABEL_HOST", "127.0.0.1")
	os.Setenv("SMSLABEL_READ_TIMEOUT", "30s")
	os.Setenv("SMSLABEL_DB_PATH", "/tmp/other.db")
	os.Setenv("SMSLABEL_LOG_LEVEL", "debug")
	os.Setenv("SMSLABEL_LOG_FORMAT", "text")
	os.Setenv("SMSLABEL_BATCH_CONCURRENCY", "6")
	os.Setenv("SMSLABEL_BATCH_TIMEOUT_MS", "5000")
	defer clearEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 6, cfg.Batch.DefaultConcurrency)
	assert.Equal(t, 5000, cfg.Batch.DefaultTimeoutMS)
}

func TestConfig_Load_InvalidValuesUseDefaults(t *testing.T) {
	clearEnv()

	os.Setenv("SMSLABEL_PORT", "not_a_number")
	os.Setenv("SMSLABEL_READ_TIMEOUT", "invalid_duration")
	defer clearEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8585, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "./data/test.db"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Batch:    BatchConfig{DefaultConcurrency: 4, DefaultTimeoutMS: 1000},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []int{0, -1, 65536, 100000}
	for _, port := range tests {
		cfg := validConfig()
		cfg.Server.Port = port
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid port")
	}
}

func TestConfig_Validate_ValidPorts(t *testing.T) {
	for _, port := range []int{1, 80, 443, 8080, 65535} {
		cfg := validConfig()
		cfg.Server.Port = port
		assert.NoError(t, cfg.Validate())
	}
}

func TestConfig_Validate_EmptyDatabasePath(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "verbose", "critical", ""} {
		cfg := validConfig()
		cfg.Logging.Level = level
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	}
}

func TestConfig_Validate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate())
	}
}

func TestConfig_Validate_InvalidLogFormat(t *testing.T) {
	for _, format := range []string{"xml", "yaml", "csv", ""} {
		cfg := validConfig()
		cfg.Logging.Format = format
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log format")
	}
}

func TestConfig_Validate_BatchConcurrencyBounds(t *testing.T) {
	for _, c := range []int{0, 9, -1} {
		cfg := validConfig()
		cfg.Batch.DefaultConcurrency = c
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "concurrency")
	}
}

func TestConfig_Validate_BatchTimeoutFloor(t *testing.T) {
	cfg := validConfig()
	cfg.Batch.DefaultTimeoutMS = 500
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestGetEnv_WithValue(t *testing.T) {
	os.Setenv("TEST_KEY", "test_value")
	defer os.Unsetenv("TEST_KEY")
	assert.Equal(t, "test_value", getEnv("TEST_KEY", "default"))
}

func TestGetEnv_WithoutValue(t *testing.T) {
	os.Unsetenv("TEST_KEY")
	assert.Equal(t, "default", getEnv("TEST_KEY", "default"))
}

func TestGetEnvAsInt_ValidAndInvalid(t *testing.T) {
	os.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 10))
	os.Setenv("TEST_INT", "not_a_number")
	assert.Equal(t, 10, getEnvAsInt("TEST_INT", 10))
	os.Unsetenv("TEST_INT")
	assert.Equal(t, 10, getEnvAsInt("TEST_INT", 10))
}

func TestGetEnvAsDuration_ValidAndInvalid(t *testing.T) {
	os.Setenv("TEST_DURATION", "30s")
	assert.Equal(t, 30*time.Second, getEnvAsDuration("TEST_DURATION", 10*time.Second))
	os.Setenv("TEST_DURATION", "invalid")
	assert.Equal(t, 10*time.Second, getEnvAsDuration("TEST_DURATION", 10*time.Second))
	os.Unsetenv("TEST_DURATION")
	assert.Equal(t, 10*time.Second, getEnvAsDuration("TEST_DURATION", 10*time.Second))
}

func clearEnv() {
	envVars := []string{
		"SMSLABEL_PORT", "SMSLABEL_HOST", "SMSLABEL_READ_TIMEOUT", "SMSLABEL_WRITE_TIMEOUT",
		"SMSLABEL_SHUTDOWN_TIMEOUT", "SMSLABEL_DB_PATH", "SMSLABEL_LOG_LEVEL", "SMSLABEL_LOG_FORMAT",
		"SMSLABEL_BATCH_CONCURRENCY", "SMSLABEL_BATCH_TIMEOUT_MS", "SMSLABEL_LOG_DIR", "SMSLABEL_SETTINGS_PATH",
	}
	for _, key := range envVars {
		os.Unsetenv(key)
	}
}
