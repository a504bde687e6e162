package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go-doc-lifecycle/internal/model"
)

// MemoryDocumentRepository keeps documents in a map. It backs tests and the
// local development mode when DATABASE_URL is empty.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]model.Document
}

func NewMemoryDocumentRepository(docs ...model.Document) *MemoryDocumentRepository {
	repo := &MemoryDocumentRepository{docs: make(map[string]model.Document, len(docs))}
	for _, doc := range docs {
		repo.docs[doc.ID] = cloneDocument(doc)
	}
	return repo
}

func (r *MemoryDocumentRepository) FindByID(_ context.Context, id string) (model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return model.Document{}, model.ErrDocumentNotFound
	}
	return cloneDocument(doc), nil
}

func (r *MemoryDocumentRepository) Find(_ context.Context, filter model.DocumentFilter) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]model.Document, 0)
	for _, doc := range r.docs {
		if filter.Matches(doc) {
			docs = append(docs, cloneDocument(doc))
		}
	}

	sort.SliceStable(docs, func(i int, j int) bool {
		left, right := docs[i].DeletedAt, docs[j].DeletedAt
		switch {
		case left != nil && right != nil && !left.Equal(*right):
			return left.After(*right)
		case left != nil && right == nil:
			return true
		case left == nil && right != nil:
			return false
		}
		return docs[i].ID < docs[j].ID
	})

	return docs, nil
}

func (r *MemoryDocumentRepository) Save(_ context.Context, doc model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *MemoryDocumentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return model.ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *MemoryDocumentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// MemoryAuditRepository is an append-only slice of audit entries.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Create(_ context.Context, entry model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryAuditRepository) UpdateOutcome(_ context.Context, id string, outcome model.AuditOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID != id || r.entries[i].Status != model.AuditStatusPending {
			continue
		}

		completedAt := outcome.CompletedAt
		r.entries[i].Status = outcome.Status
		r.entries[i].OverwriteMethod = outcome.OverwriteMethod
		r.entries[i].OverwritePasses = outcome.OverwritePasses
		r.entries[i].ErrorMessage = outcome.ErrorMessage
		r.entries[i].CompletedAt = &completedAt
		return nil
	}

	return model.ErrAuditEntryNotFound
}

func (r *MemoryAuditRepository) Find(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]model.AuditEntry, 0)
	// Walk backwards so equal timestamps keep newest-inserted first.
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if !auditMatches(entry, query) {
			continue
		}
		matched = append(matched, entry)
	}

	sort.SliceStable(matched, func(i int, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	page, limit := query.Page, query.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = total
	}

	start := total
	if page-1 < total/max(limit, 1)+1 {
		start = min((page-1)*limit, total)
	}
	end := total
	if limit < total-start {
		end = start + limit
	}

	return matched[start:end], total, nil
}

func auditMatches(entry model.AuditEntry, query model.AuditQuery) bool {
	if query.DocumentID != "" && entry.DocumentID != query.DocumentID {
		return false
	}
	if query.OrganizationID != "" && entry.OrganizationID != query.OrganizationID {
		return false
	}
	if query.PerformedBy != "" && entry.PerformedBy != query.PerformedBy {
		return false
	}
	if query.Action != "" && !strings.EqualFold(string(entry.Action), query.Action) {
		return false
	}
	if query.Status != "" && !strings.EqualFold(string(entry.Status), query.Status) {
		return false
	}
	return true
}

func cloneDocument(doc model.Document) model.Document {
	if doc.DeletedAt != nil {
		v := *doc.DeletedAt
		doc.DeletedAt = &v
	}
	if doc.DeletedBy != nil {
		v := *doc.DeletedBy
		doc.DeletedBy = &v
	}
	if doc.DeletionReason != nil {
		v := *doc.DeletionReason
		doc.DeletionReason = &v
	}
	if doc.ScheduledDeletionDate != nil {
		v := *doc.ScheduledDeletionDate
		doc.ScheduledDeletionDate = &v
	}
	return doc
}
