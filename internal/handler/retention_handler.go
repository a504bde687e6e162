package handler

import (
	"context"
	"net/http"
	"time"

	"go-doc-lifecycle/internal/model"
)

type retentionRunner interface {
	RunNow(ctx context.Context) (int, error)
	Schedule() string
	IsRunning() bool
	NextRun() *time.Time
	LastRun() time.Time
}

type RetentionHandler struct {
	scheduler     retentionRunner
	retentionDays int
}

func NewRetentionHandler(scheduler retentionRunner, retentionDays int) *RetentionHandler {
	return &RetentionHandler{scheduler: scheduler, retentionDays: retentionDays}
}

// Run triggers an immediate sweep and waits for it to finish.
func (h *RetentionHandler) Run(w http.ResponseWriter, r *http.Request) {
	started := time.Now().UTC()

	deleted, err := h.scheduler.RunNow(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.RetentionRunResponse{
		DeletedCount: deleted,
		StartedAt:    started.Format(time.RFC3339),
		FinishedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil)
}

func (h *RetentionHandler) Status(w http.ResponseWriter, _ *http.Request) {
	status := model.RetentionStatus{
		Schedule:      h.scheduler.Schedule(),
		Running:       h.scheduler.IsRunning(),
		RetentionDays: h.retentionDays,
	}

	if next := h.scheduler.NextRun(); next != nil {
		formatted := next.UTC().Format(time.RFC3339)
		status.NextRun = &formatted
	}
	if last := h.scheduler.LastRun(); !last.IsZero() {
		formatted := last.UTC().Format(time.RFC3339)
		status.LastRun = &formatted
	}

	writeSuccess(w, http.StatusOK, status, nil)
}
