// Command sweep runs one retention sweep against the configured database and
// storage, then exits. It is meant for cron jobs outside the server process
// and for operators recovering from a missed schedule.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-doc-lifecycle/internal/app"
	"go-doc-lifecycle/internal/config"
	"go-doc-lifecycle/internal/logger"
)

func main() {
	timeout := flag.Duration("timeout", time.Hour, "maximum time to spend listing expired documents")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required for a standalone sweep")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	components, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	deleted, err := components.Scheduler.RunNow(ctx)
	if err != nil {
		slog.Error("retention sweep failed", "error", err)
		components.Close()
		os.Exit(1)
	}

	slog.Info("retention sweep finished", "deleted_count", deleted, "retention_days", cfg.RetentionDays)
}
