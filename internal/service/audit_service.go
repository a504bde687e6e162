package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/pkg/apierror"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200

	// maxAuditOffset keeps (page-1)*limit inside a Postgres-safe OFFSET.
	maxAuditOffset = math.MaxInt32
)

// AuditRepository persists deletion audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry model.AuditEntry) error
	UpdateOutcome(ctx context.Context, id string, outcome model.AuditOutcome) error
	Find(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error)
}

// AuditService records the append-only deletion audit trail.
type AuditService struct {
	repo   AuditRepository
	now    func() time.Time
	logger *slog.Logger
}

func NewAuditService(repo AuditRepository) *AuditService {
	return &AuditService{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default().With("component", "service.audit"),
	}
}

// Record stores a new entry and returns it with ID and CreatedAt filled in.
// Entries created COMPLETED are stamped with CompletedAt as well.
func (s *AuditService) Record(ctx context.Context, entry model.AuditEntry) (model.AuditEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.Status == "" {
		entry.Status = model.AuditStatusPending
	}
	if entry.Status != model.AuditStatusPending && entry.CompletedAt == nil {
		completedAt := entry.CreatedAt
		entry.CompletedAt = &completedAt
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return model.AuditEntry{}, fmt.Errorf("%w: record %s audit for %s: %v", model.ErrPersistence, entry.Action, entry.DocumentID, err)
	}

	s.logger.Debug("audit entry recorded",
		"audit_id", entry.ID,
		"document_id", entry.DocumentID,
		"action", entry.Action,
		"status", entry.Status,
	)
	return entry, nil
}

// Complete marks a pending entry COMPLETED with the overwrite actually used.
func (s *AuditService) Complete(ctx context.Context, id string, method string, passes int) error {
	return s.settle(ctx, id, model.AuditOutcome{
		Status:          model.AuditStatusCompleted,
		OverwriteMethod: method,
		OverwritePasses: passes,
		CompletedAt:     s.now(),
	})
}

// Fail marks a pending entry FAILED with a non-empty error message.
func (s *AuditService) Fail(ctx context.Context, id string, method string, passes int, message string) error {
	if strings.TrimSpace(message) == "" {
		message = "unknown error"
	}

	return s.settle(ctx, id, model.AuditOutcome{
		Status:          model.AuditStatusFailed,
		OverwriteMethod: method,
		OverwritePasses: passes,
		ErrorMessage:    message,
		CompletedAt:     s.now(),
	})
}

func (s *AuditService) settle(ctx context.Context, id string, outcome model.AuditOutcome) error {
	if err := s.repo.UpdateOutcome(ctx, id, outcome); err != nil {
		return fmt.Errorf("%w: settle audit %s as %s: %v", model.ErrPersistence, id, outcome.Status, err)
	}
	return nil
}

// Query returns matching entries newest first with page metadata.
func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = defaultAuditLimit
	}
	if query.Limit > maxAuditLimit {
		query.Limit = maxAuditLimit
	}
	if query.Page-1 > maxAuditOffset/query.Limit {
		return nil, model.Meta{}, apierror.Wrap(model.ErrInvalidInput, "INVALID_PAGE",
			"page is out of range", fmt.Sprintf("page=%d limit=%d", query.Page, query.Limit), http.StatusBadRequest)
	}

	entries, total, err := s.repo.Find(ctx, query)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}

	return entries, model.NewMeta(query.Page, query.Limit, total), nil
}
