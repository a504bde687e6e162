package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"go-doc-lifecycle/internal/auth"
	"go-doc-lifecycle/internal/config"
	"go-doc-lifecycle/internal/handler"
	"go-doc-lifecycle/internal/middleware"
	"go-doc-lifecycle/internal/router"
)

type App struct {
	cfg        *config.Config
	server     *http.Server
	components *Components
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	components, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	validator, err := auth.NewTokenValidator(cfg.JWTSecret)
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("failed to initialize token validator: %w", err)
	}

	checks := map[string]handler.HealthChecker{}
	if components.DB != nil {
		checks["database"] = components.DB
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(validator), router.Handlers{
		Document:  handler.NewDocumentHandler(components.Lifecycle),
		Audit:     handler.NewAuditHandler(components.Audit, components.Lifecycle),
		Retention: handler.NewRetentionHandler(components.Scheduler, cfg.RetentionDays),
		Health:    handler.NewHealthHandler(checks),
		Metrics:   components.Metrics.Handler(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{cfg: cfg, server: server, components: components}, nil
}

// Handler exposes the routed HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.components.Close()

	events, unsubscribe := a.components.Bus.Subscribe()
	defer unsubscribe()
	go a.components.Metrics.Consume(ctx, events)

	if a.cfg.RetentionSchedulerEnabled {
		if err := a.components.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
	} else {
		slog.Info("retention scheduler disabled")
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Wait for a sweep that is mid-overwrite.
	a.components.Scheduler.Stop()

	slog.Info("server stopped")
	return nil
}
