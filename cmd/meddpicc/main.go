// Command meddpicc runs the qualification engine as an MCP server on
// stdin/stdout, for use from MCP-compatible assistants.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dealgrid/meddpicc"
	"github.com/dealgrid/meddpicc/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	// Load .env first so MEDDPICC_LOG_LEVEL from the file is honored.
	_ = godotenv.Load()
	level := slog.LevelInfo
	if cfg, err := config.Load(); err == nil {
		level = cfg.SlogLevel()
	}
	// Logs go to stderr: stdout carries the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	engine, err := meddpicc.New(
		meddpicc.WithLogger(logger),
		meddpicc.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer func() {
		if err := engine.Close(context.Background()); err != nil {
			logger.Error("engine close error", "error", err)
		}
	}()

	if err := engine.ServeMCP(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
