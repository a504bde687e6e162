package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"go-doc-lifecycle/internal/config"
	"go-doc-lifecycle/internal/database"
	"go-doc-lifecycle/internal/erasure"
	"go-doc-lifecycle/internal/event"
	"go-doc-lifecycle/internal/metrics"
	"go-doc-lifecycle/internal/repository"
	"go-doc-lifecycle/internal/retention"
	"go-doc-lifecycle/internal/search"
	"go-doc-lifecycle/internal/service"
	"go-doc-lifecycle/internal/storage"
)

// Components is the lifecycle wiring shared by the server and the sweep CLI.
type Components struct {
	DB        *database.DB
	Storage   *storage.Storage
	Bus       *event.InMemoryBus
	Metrics   *metrics.Collector
	Documents service.DocumentRepository
	Audit     *service.AuditService
	Lifecycle *service.LifecycleService
	Scheduler *retention.Scheduler
}

// Build connects storage, the database (or in-memory repositories when
// DATABASE_URL is empty), search and the erasure engine.
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	store, err := storage.New(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	store.SetChunkSize(cfg.OverwriteChunkSize)

	c := &Components{Storage: store, Bus: event.NewBus()}

	var (
		documents service.DocumentRepository
		audits    service.AuditRepository
	)

	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory repositories")
		documents = repository.NewMemoryDocumentRepository()
		audits = repository.NewMemoryAuditRepository()
	} else {
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, database.Options{
			MaxConns: int32(cfg.DBMaxConns),
			MinConns: int32(cfg.DBMinConns),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		c.DB = db
		documents = repository.NewDocumentRepository(db.Pool)
		audits = repository.NewAuditRepository(db.Pool)
		slog.Info("database ready")
	}

	defaultMethod, err := erasure.ParseMethod(cfg.DefaultOverwriteMethod, erasure.MethodSimple)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Documents = documents
	c.Audit = service.NewAuditService(audits)
	c.Lifecycle = service.NewLifecycleService(
		documents,
		c.Audit,
		search.New(cfg.SearchIndexURL, cfg.SearchTimeout),
		erasure.NewEngine(store, defaultMethod),
	)
	c.Lifecycle.SetRetentionDays(cfg.RetentionDays)
	c.Lifecycle.SetEventBus(c.Bus)

	c.Scheduler, err = retention.NewScheduler(c.Lifecycle, cfg.RetentionSchedule)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Scheduler.SetEventBus(c.Bus)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.NewCollector(registry)

	return c, nil
}

// Close releases the database pool.
func (c *Components) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}
