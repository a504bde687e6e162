package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"go-doc-lifecycle/internal/erasure"
	"go-doc-lifecycle/internal/event"
	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/internal/search"
)

const (
	DefaultRetentionDays = 30
	autoDeleteReason     = "Automatic deletion after retention period"
)

// DocumentRepository is the document store the lifecycle transitions operate on.
type DocumentRepository interface {
	FindByID(ctx context.Context, id string) (model.Document, error)
	Find(ctx context.Context, filter model.DocumentFilter) ([]model.Document, error)
	Save(ctx context.Context, doc model.Document) error
	Delete(ctx context.Context, id string) error
}

// Eraser destroys a stored file. *erasure.Engine satisfies it.
type Eraser interface {
	SecureOverwriteFile(ctx context.Context, storagePath string, opts erasure.Options) (erasure.Result, error)
	DefaultMethod() erasure.Method
}

// LifecycleService drives documents through ACTIVE, TRASHED and ERASED.
type LifecycleService struct {
	documents     DocumentRepository
	audit         *AuditService
	indexer       search.Indexer
	eraser        Eraser
	bus           event.Bus
	now           func() time.Time
	retentionDays int
	erasing       singleflight.Group
	logger        *slog.Logger
}

func NewLifecycleService(documents DocumentRepository, audit *AuditService, indexer search.Indexer, eraser Eraser) *LifecycleService {
	if indexer == nil {
		indexer = search.Noop{}
	}

	return &LifecycleService{
		documents:     documents,
		audit:         audit,
		indexer:       indexer,
		eraser:        eraser,
		now:           func() time.Time { return time.Now().UTC() },
		retentionDays: DefaultRetentionDays,
		logger:        slog.Default().With("component", "service.lifecycle"),
	}
}

func (s *LifecycleService) SetEventBus(bus event.Bus) {
	s.bus = bus
}

func (s *LifecycleService) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.now = now
	s.audit.now = now
}

func (s *LifecycleService) SetRetentionDays(days int) {
	if days <= 0 {
		return
	}
	s.retentionDays = days
}

func (s *LifecycleService) RetentionDays() int {
	return s.retentionDays
}

// MoveToTrash soft-deletes an active document owned by the actor.
func (s *LifecycleService) MoveToTrash(ctx context.Context, documentID string, actor model.AuditActor) (model.Document, error) {
	doc, err := s.loadOwned(ctx, documentID, actor)
	if err != nil {
		return model.Document{}, err
	}
	if doc.IsDeleted {
		return model.Document{}, fmt.Errorf("%w: document %s is already in trash", model.ErrInvalidState, documentID)
	}

	snapshot := doc.Snapshot()
	now := s.now()
	scheduled := now.AddDate(0, 0, s.retentionDays)
	deletedBy := actor.UserID

	doc.IsDeleted = true
	doc.DeletedAt = &now
	doc.DeletedBy = &deletedBy
	doc.ScheduledDeletionDate = &scheduled
	doc.DeletionReason = nil
	if actor.Reason != "" {
		reason := actor.Reason
		doc.DeletionReason = &reason
	}
	doc.UpdatedAt = now

	if err := s.documents.Save(ctx, doc); err != nil {
		return model.Document{}, fmt.Errorf("%w: save trashed document %s: %v", model.ErrPersistence, documentID, err)
	}

	if _, err := s.audit.Record(ctx, newAuditEntry(doc.ID, snapshot, actor, model.AuditActionSoftDelete, model.AuditStatusCompleted)); err != nil {
		return model.Document{}, err
	}

	if err := s.indexer.RemoveDocument(ctx, doc.ID); err != nil {
		s.logger.Warn("search index removal failed", "document_id", doc.ID, "error", err)
	}

	s.publish(event.TypeDocumentTrashed, actor.UserID, event.Lifecycle{DocumentID: doc.ID, OrganizationID: doc.OrganizationID})
	s.logger.Info("document moved to trash",
		"document_id", doc.ID,
		"user_id", actor.UserID,
		"scheduled_deletion", scheduled.Format(time.RFC3339),
	)

	return doc, nil
}

// RestoreFromTrash returns a trashed document to the active state.
func (s *LifecycleService) RestoreFromTrash(ctx context.Context, documentID string, actor model.AuditActor) (model.Document, error) {
	doc, err := s.loadOwned(ctx, documentID, actor)
	if err != nil {
		return model.Document{}, err
	}
	if !doc.IsDeleted {
		return model.Document{}, fmt.Errorf("%w: document %s is not in trash", model.ErrInvalidState, documentID)
	}

	doc.IsDeleted = false
	doc.DeletedAt = nil
	doc.DeletedBy = nil
	doc.DeletionReason = nil
	doc.ScheduledDeletionDate = nil
	doc.UpdatedAt = s.now()

	if err := s.documents.Save(ctx, doc); err != nil {
		return model.Document{}, fmt.Errorf("%w: save restored document %s: %v", model.ErrPersistence, documentID, err)
	}

	if _, err := s.audit.Record(ctx, newAuditEntry(doc.ID, doc.Snapshot(), actor, model.AuditActionRestore, model.AuditStatusCompleted)); err != nil {
		return model.Document{}, err
	}

	if err := s.indexer.IndexDocument(ctx, doc); err != nil {
		s.logger.Warn("search re-index failed", "document_id", doc.ID, "error", err)
	}

	s.publish(event.TypeDocumentRestored, actor.UserID, event.Lifecycle{DocumentID: doc.ID, OrganizationID: doc.OrganizationID})
	s.logger.Info("document restored from trash", "document_id", doc.ID, "user_id", actor.UserID)

	return doc, nil
}

// PermanentDelete securely erases a trashed document's file and removes its
// record. On overwrite failure the record stays in trash and the audit entry
// is marked FAILED.
func (s *LifecycleService) PermanentDelete(ctx context.Context, documentID string, actor model.AuditActor, opts erasure.Options) error {
	doc, err := s.loadOwned(ctx, documentID, actor)
	if err != nil {
		return err
	}
	if !doc.IsDeleted {
		return fmt.Errorf("%w: document %s must be in trash before permanent deletion", model.ErrInvalidState, documentID)
	}

	resolved, err := opts.Resolve(s.eraser.DefaultMethod())
	if err != nil {
		return err
	}

	_, err, shared := s.erasing.Do(doc.ID, func() (any, error) {
		return nil, s.eraseTrashed(ctx, doc.ID, actor, resolved)
	})
	if shared {
		s.logger.Debug("permanent delete joined in-flight erasure", "document_id", doc.ID, "user_id", actor.UserID)
	}

	return err
}

// eraseTrashed runs inside the per-document flight. The record is re-read so a
// caller that passed its guards just as another erasure finished sees NotFound
// instead of overwriting twice.
func (s *LifecycleService) eraseTrashed(ctx context.Context, documentID string, actor model.AuditActor, opts erasure.Options) error {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			return fmt.Errorf("%w: %s", model.ErrDocumentNotFound, documentID)
		}
		return fmt.Errorf("%w: load document %s: %v", model.ErrPersistence, documentID, err)
	}
	if !doc.IsDeleted {
		return fmt.Errorf("%w: document %s was restored before erasure", model.ErrInvalidState, documentID)
	}

	return s.erase(ctx, doc, actor, opts)
}

func (s *LifecycleService) erase(ctx context.Context, doc model.Document, actor model.AuditActor, opts erasure.Options) error {
	entry := newAuditEntry(doc.ID, doc.Snapshot(), actor, model.AuditActionPermanentDelete, model.AuditStatusPending)
	entry.OverwriteMethod = opts.Method.Label()
	entry.OverwritePasses = opts.Passes

	entry, err := s.audit.Record(ctx, entry)
	if err != nil {
		return err
	}

	// The overwrite runs to completion once started, even if the caller goes away.
	workCtx := context.WithoutCancel(ctx)

	result, eraseErr := s.eraser.SecureOverwriteFile(workCtx, doc.StoragePath, opts)
	if eraseErr != nil {
		if err := s.audit.Fail(workCtx, entry.ID, opts.Method.Label(), opts.Passes, eraseErr.Error()); err != nil {
			s.logger.Error("failed to record erase failure", "document_id", doc.ID, "audit_id", entry.ID, "error", err)
		}

		s.publish(event.TypeDocumentEraseFailed, actor.UserID, event.Lifecycle{
			DocumentID:      doc.ID,
			OrganizationID:  doc.OrganizationID,
			OverwriteMethod: string(opts.Method),
			Error:           eraseErr.Error(),
		})
		s.logger.Error("secure erase failed", "document_id", doc.ID, "path", doc.StoragePath, "error", eraseErr)

		return fmt.Errorf("%w: document %s: %w", model.ErrOverwriteFailed, doc.ID, eraseErr)
	}

	completeErr := s.audit.Complete(workCtx, entry.ID, result.Method.Label(), result.Passes)
	if completeErr != nil {
		s.logger.Error("failed to record erase completion", "document_id", doc.ID, "audit_id", entry.ID, "error", completeErr)
	}

	if err := s.documents.Delete(workCtx, doc.ID); err != nil && !errors.Is(err, model.ErrDocumentNotFound) {
		return fmt.Errorf("%w: delete erased document %s: %v", model.ErrPersistence, doc.ID, err)
	}
	if completeErr != nil {
		return completeErr
	}

	if err := s.indexer.RemoveDocument(workCtx, doc.ID); err != nil {
		s.logger.Warn("search index removal failed", "document_id", doc.ID, "error", err)
	}

	s.publish(event.TypeDocumentErased, actor.UserID, event.Lifecycle{
		DocumentID:      doc.ID,
		OrganizationID:  doc.OrganizationID,
		OverwriteMethod: string(result.Method),
		OverwritePasses: result.Passes,
		Bytes:           result.Size,
	})
	s.logger.Info("document permanently deleted",
		"document_id", doc.ID,
		"user_id", actor.UserID,
		"method", result.Method,
		"passes", result.Passes,
		"file_missing", result.Missing,
	)

	return nil
}

// EmptyTrash permanently deletes every trashed document the actor owns and
// returns how many were erased. Per-document failures are logged and skipped.
func (s *LifecycleService) EmptyTrash(ctx context.Context, actor model.AuditActor, opts erasure.Options) (int, error) {
	if actor.UserID == "" {
		return 0, fmt.Errorf("%w: actor is required", model.ErrUnauthorized)
	}
	if _, err := opts.Resolve(s.eraser.DefaultMethod()); err != nil {
		return 0, err
	}

	docs, err := s.documents.Find(ctx, model.DocumentFilter{
		OwnerID:     actor.UserID,
		OnlyDeleted: true,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: list trash for %s: %v", model.ErrPersistence, actor.UserID, err)
	}

	deleted := 0
	for _, doc := range docs {
		if err := s.PermanentDelete(ctx, doc.ID, actor, opts); err != nil {
			s.logger.Warn("empty trash: document skipped", "document_id", doc.ID, "user_id", actor.UserID, "error", err)
			continue
		}
		deleted++
	}

	s.logger.Info("trash emptied", "user_id", actor.UserID, "deleted", deleted, "candidates", len(docs))
	return deleted, nil
}

// AutoDeleteExpiredDocuments erases every trashed document whose retention
// period has elapsed, across all owners, using the simple method.
func (s *LifecycleService) AutoDeleteExpiredDocuments(ctx context.Context) (int, error) {
	now := s.now()

	docs, err := s.documents.Find(ctx, model.DocumentFilter{OnlyDeleted: true, ScheduledUntil: &now})
	if err != nil {
		return 0, fmt.Errorf("%w: list expired documents: %v", model.ErrPersistence, err)
	}

	deleted := 0
	for _, doc := range docs {
		actor := model.AuditActor{
			UserID:         doc.OwnerID,
			OrganizationID: doc.OrganizationID,
			Reason:         autoDeleteReason,
		}
		if doc.DeletedBy != nil && *doc.DeletedBy != "" {
			actor.UserID = *doc.DeletedBy
		}

		if err := s.permanentDeleteAs(ctx, doc, actor); err != nil {
			s.logger.Warn("retention sweep: document skipped", "document_id", doc.ID, "error", err)
			continue
		}
		deleted++
	}

	if len(docs) > 0 {
		s.logger.Info("expired documents erased", "deleted", deleted, "candidates", len(docs))
	}
	return deleted, nil
}

// permanentDeleteAs skips the ownership guard: the retention sweep acts on
// behalf of whoever trashed the document, which need not be the owner.
func (s *LifecycleService) permanentDeleteAs(ctx context.Context, doc model.Document, actor model.AuditActor) error {
	opts := erasure.Options{Method: erasure.MethodSimple, Passes: erasure.MethodSimple.DefaultPasses()}

	_, err, _ := s.erasing.Do(doc.ID, func() (any, error) {
		return nil, s.eraseTrashed(ctx, doc.ID, actor, opts)
	})
	return err
}

// GetTrash lists the user's trashed documents, optionally within one organization.
func (s *LifecycleService) GetTrash(ctx context.Context, userID string, organizationID string) ([]model.Document, error) {
	docs, err := s.documents.Find(ctx, model.DocumentFilter{
		OwnerID:        userID,
		OrganizationID: organizationID,
		OnlyDeleted:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list trash for %s: %v", model.ErrPersistence, userID, err)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// GetDocumentDeletionHistory returns every audit entry for the document,
// newest first. It works after the document itself has been erased.
// GetDocumentDeletionHistory returns every audit entry for a document, newest
// first, reading the trail page by page.
func (s *LifecycleService) GetDocumentDeletionHistory(ctx context.Context, documentID string) ([]model.AuditEntry, error) {
	history := []model.AuditEntry{}

	for page := 1; ; page++ {
		entries, meta, err := s.audit.Query(ctx, model.AuditQuery{DocumentID: documentID, Page: page, Limit: maxAuditLimit})
		if err != nil {
			return nil, err
		}

		history = append(history, entries...)
		if len(entries) < maxAuditLimit || len(history) >= meta.Total {
			return history, nil
		}
	}
}

func (s *LifecycleService) GetOrganizationDeletionAudit(ctx context.Context, organizationID string, limit int) ([]model.AuditEntry, error) {
	if organizationID == "" {
		return []model.AuditEntry{}, nil
	}

	entries, _, err := s.audit.Query(ctx, model.AuditQuery{OrganizationID: organizationID, Limit: limit})
	return entries, err
}

func (s *LifecycleService) loadOwned(ctx context.Context, documentID string, actor model.AuditActor) (model.Document, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			return model.Document{}, fmt.Errorf("%w: %s", model.ErrDocumentNotFound, documentID)
		}
		return model.Document{}, fmt.Errorf("%w: load document %s: %v", model.ErrPersistence, documentID, err)
	}

	if !doc.IsOwnedBy(actor.UserID) {
		return model.Document{}, fmt.Errorf("%w: user %q does not own document %s", model.ErrForbidden, actor.UserID, documentID)
	}

	return doc, nil
}

func (s *LifecycleService) publish(eventType event.Type, actorID string, payload event.Lifecycle) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(eventType, actorID, payload))
}

func newAuditEntry(documentID string, snapshot model.DocumentSnapshot, actor model.AuditActor, action model.AuditAction, status model.AuditStatus) model.AuditEntry {
	organizationID := snapshot.OrganizationID
	if organizationID == "" {
		organizationID = actor.OrganizationID
	}

	return model.AuditEntry{
		DocumentID:       documentID,
		DocumentSnapshot: snapshot,
		PerformedBy:      actor.UserID,
		OrganizationID:   organizationID,
		Action:           action,
		Status:           status,
		Reason:           actor.Reason,
		IPAddress:        actor.IP,
		UserAgent:        actor.UserAgent,
	}
}
