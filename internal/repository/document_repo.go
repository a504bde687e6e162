package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-doc-lifecycle/internal/model"
)

const documentColumns = `id, owner_id, organization_id, filename, original_name, storage_path,
	size, content_type, is_deleted, deleted_at, deleted_by, deletion_reason,
	scheduled_deletion_date, created_at, updated_at`

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (model.Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Document{}, model.ErrDocumentNotFound
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("find document by id: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) Find(ctx context.Context, filter model.DocumentFilter) ([]model.Document, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	argIdx := 1

	if filter.OwnerID != "" {
		where = append(where, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, filter.OwnerID)
		argIdx++
	}
	if filter.OrganizationID != "" {
		where = append(where, fmt.Sprintf("organization_id = $%d", argIdx))
		args = append(args, filter.OrganizationID)
		argIdx++
	}
	if filter.OnlyDeleted {
		where = append(where, "is_deleted")
	}
	if filter.ScheduledUntil != nil {
		where = append(where, fmt.Sprintf("scheduled_deletion_date <= $%d", argIdx))
		args = append(args, *filter.ScheduledUntil)
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY deleted_at DESC NULLS LAST, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Save upserts the full document row.
func (r *DocumentRepository) Save(ctx context.Context, doc model.Document) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO UPDATE SET
		     is_deleted = EXCLUDED.is_deleted,
		     deleted_at = EXCLUDED.deleted_at,
		     deleted_by = EXCLUDED.deleted_by,
		     deletion_reason = EXCLUDED.deletion_reason,
		     scheduled_deletion_date = EXCLUDED.scheduled_deletion_date,
		     updated_at = EXCLUDED.updated_at`,
		doc.ID, doc.OwnerID, doc.OrganizationID, doc.Filename, doc.OriginalName, doc.StoragePath,
		doc.Size, doc.ContentType, doc.IsDeleted, doc.DeletedAt, doc.DeletedBy, doc.DeletionReason,
		doc.ScheduledDeletionDate, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (model.Document, error) {
	var doc model.Document
	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.OrganizationID, &doc.Filename, &doc.OriginalName, &doc.StoragePath,
		&doc.Size, &doc.ContentType, &doc.IsDeleted, &doc.DeletedAt, &doc.DeletedBy, &doc.DeletionReason,
		&doc.ScheduledDeletionDate, &doc.CreatedAt, &doc.UpdatedAt,
	)
	return doc, err
}
