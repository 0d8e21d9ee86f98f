// Package config loads and validates operational configuration from
// environment variables. The scoring configuration (pillars, weights,
// thresholds) is a domain object and lives in internal/pillar, not here.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Store backend names accepted by MEDDPICC_STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all operational configuration.
type Config struct {
	// Store selects the persistence backend.
	Store       string
	DatabaseURL string // Postgres DSN when Store is "postgres".
	SQLitePath  string // Database file when Store is "sqlite".

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel       string
	ExportTimeout  time.Duration
	MaxAnswerBatch int // Upper bound on answers accepted per update.
}

// Load reads configuration from environment variables with defaults.
func Load() (Config, error) {
	cfg := Config{
		Store:          envStr("MEDDPICC_STORE", StoreMemory),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		SQLitePath:     envStr("MEDDPICC_SQLITE_PATH", "meddpicc.db"),
		OTELEndpoint:   envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:   envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:    envStr("OTEL_SERVICE_NAME", "meddpicc"),
		LogLevel:       envStr("MEDDPICC_LOG_LEVEL", "info"),
		ExportTimeout:  envDuration("MEDDPICC_EXPORT_TIMEOUT", 30*time.Second),
		MaxAnswerBatch: envInt("MEDDPICC_MAX_ANSWER_BATCH", 200),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backend is usable.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: MEDDPICC_SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.MaxAnswerBatch <= 0 {
		return fmt.Errorf("config: MEDDPICC_MAX_ANSWER_BATCH must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level. Unknown values fall back
// to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
