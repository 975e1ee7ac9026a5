package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoadConfigFromDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.ServerPort)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, int32(8), cfg.Postgres.MaxConns)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "https://chat.stream-io-api.com", cfg.Stream.BaseURL)
	assert.False(t, cfg.Stream.Enabled())
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadConfigFromOverrides(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"PORT":              "8081",
		"APP_ENV":           "Production",
		"JWT_SECRET_KEY":    "prod-secret",
		"SESSION_TTL":       "1h",
		"STORE_DRIVER":      "POSTGRES",
		"POSTGRES_DSN":      "postgres://u:p@db:5432/app",
		"REDIS_ADDR":        "redis:6379",
		"LOG_LEVEL":         "DEBUG",
		"STREAM_API_KEY":    "key",
		"STREAM_API_SECRET": "secret",
		"STREAM_BASE_URL":   "https://chat.example.com/",
	})
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.ServerPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.Postgres.BuildDSN())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Stream.Enabled())
	assert.Equal(t, "https://chat.example.com", cfg.Stream.BaseURL)
}

func TestLoadConfigFromRejectsInvalid(t *testing.T) {
	_, err := LoadConfigFrom(map[string]string{"APP_ENV": "production"})
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")

	_, err = LoadConfigFrom(map[string]string{"STORE_DRIVER": "sqlite"})
	assert.ErrorContains(t, err, "STORE_DRIVER")

	_, err = LoadConfigFrom(map[string]string{"SESSION_TTL": "0s"})
	assert.ErrorContains(t, err, "SESSION_TTL")
}

func TestBuildDSNFromParts(t *testing.T) {
	cfg := PostgresConfig{User: "u", Password: "p", Host: "h", Port: 5432, Database: "d"}
	assert.Equal(t, "postgres://u:p@h:5432/d", cfg.BuildDSN())
}

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "loud", Encoding: "json", ServiceName: "test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0))
}

func TestMustNewLoggerHonoursLevel(t *testing.T) {
	var logger *zap.Logger
	require.NotPanics(t, func() {
		logger = MustNewLogger(LoggingConfig{Level: "warn", Encoding: "console"})
	})
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
