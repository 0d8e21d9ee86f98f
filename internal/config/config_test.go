package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/meddpicc/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEDDPICC_STORE", "DATABASE_URL", "MEDDPICC_SQLITE_PATH",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME",
		"MEDDPICC_LOG_LEVEL", "MEDDPICC_EXPORT_TIMEOUT", "MEDDPICC_MAX_ANSWER_BATCH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, "meddpicc.db", cfg.SQLitePath)
	assert.Equal(t, "meddpicc", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ExportTimeout)
	assert.Equal(t, 200, cfg.MaxAnswerBatch)
	assert.False(t, cfg.OTELInsecure)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDDPICC_STORE", "sqlite")
	t.Setenv("MEDDPICC_SQLITE_PATH", "/tmp/deals.db")
	t.Setenv("MEDDPICC_EXPORT_TIMEOUT", "5s")
	t.Setenv("MEDDPICC_MAX_ANSWER_BATCH", "50")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/deals.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.ExportTimeout)
	assert.Equal(t, 50, cfg.MaxAnswerBatch)
	assert.True(t, cfg.OTELInsecure)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDDPICC_MAX_ANSWER_BATCH", "a lot")
	t.Setenv("MEDDPICC_EXPORT_TIMEOUT", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.MaxAnswerBatch)
	assert.Equal(t, 30*time.Second, cfg.ExportTimeout)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, config.Config{LogLevel: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, config.Config{LogLevel: "info"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, config.Config{LogLevel: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, config.Config{LogLevel: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, config.Config{LogLevel: "verbose"}.SlogLevel(), "unknown level falls back to info")
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDDPICC_STORE", "postgres")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_UnknownStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDDPICC_STORE", "redis")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}
