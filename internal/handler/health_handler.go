package handler

import (
	"context"
	"net/http"
	"time"

	"go-doc-lifecycle/internal/model"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]HealthChecker
}

func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			status["status"] = "degraded"
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}

	if status["status"] != "ok" {
		writeJSON(w, http.StatusServiceUnavailable, model.APIResponse{Success: false, Data: status})
		return
	}

	writeSuccess(w, http.StatusOK, status, nil)
}
