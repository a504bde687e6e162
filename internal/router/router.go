package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-doc-lifecycle/internal/config"
	"go-doc-lifecycle/internal/handler"
	"go-doc-lifecycle/internal/middleware"
)

type Handlers struct {
	Document  *handler.DocumentHandler
	Audit     *handler.AuditHandler
	Retention *handler.RetentionHandler
	Health    *handler.HealthHandler
	Metrics   http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, 0)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware.RequireAuth)

		// Reads and soft transitions share the request timeout. Erasures run
		// until the overwrite finishes and are bounded by the server write timeout.
		api.Group(func(quick chi.Router) {
			quick.Use(middleware.Timeout(cfg.RequestTimeout))

			quick.Get("/documents/trash", h.Document.ListTrash)
			quick.Post("/documents/{id}/trash", h.Document.Trash)
			quick.Post("/documents/{id}/restore", h.Document.Restore)
			quick.Get("/documents/{id}/deletion-history", h.Document.DeletionHistory)

			quick.With(authMiddleware.RequireRoles("admin")).Get("/organizations/{id}/deletion-audit", h.Audit.Organization)
			quick.With(authMiddleware.RequireRoles("admin")).Get("/admin/deletion-audit", h.Audit.List)
			quick.With(authMiddleware.RequireRoles("admin")).Get("/admin/retention", h.Retention.Status)
		})

		api.Delete("/documents/{id}/permanent", h.Document.PermanentDelete)
		api.Post("/documents/trash/empty", h.Document.EmptyTrash)
		api.With(authMiddleware.RequireRoles("admin")).Post("/admin/retention/run", h.Retention.Run)
	})

	return r
}
