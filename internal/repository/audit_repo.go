package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-doc-lifecycle/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Create(ctx context.Context, entry model.AuditEntry) error {
	snapshotJSON, err := json.Marshal(entry.DocumentSnapshot)
	if err != nil {
		return fmt.Errorf("marshal document snapshot: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO deletion_audits
		 (id, document_id, document_snapshot, performed_by, organization_id, action, status,
		  reason, ip_address, user_agent, overwrite_method, overwrite_passes, error_message,
		  completed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		entry.ID, entry.DocumentID, snapshotJSON, entry.PerformedBy, entry.OrganizationID,
		string(entry.Action), string(entry.Status), entry.Reason, entry.IPAddress, entry.UserAgent,
		entry.OverwriteMethod, entry.OverwritePasses, entry.ErrorMessage, entry.CompletedAt, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// UpdateOutcome settles a PENDING entry. Identity columns are never touched.
func (r *AuditRepository) UpdateOutcome(ctx context.Context, id string, outcome model.AuditOutcome) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE deletion_audits
		 SET status = $2, overwrite_method = $3, overwrite_passes = $4,
		     error_message = $5, completed_at = $6
		 WHERE id = $1 AND status = 'PENDING'`,
		id, string(outcome.Status), outcome.OverwriteMethod, outcome.OverwritePasses,
		outcome.ErrorMessage, outcome.CompletedAt)
	if err != nil {
		return fmt.Errorf("update audit entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAuditEntryNotFound
	}
	return nil
}

func (r *AuditRepository) Find(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error) {
	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	addFilter := func(column string, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		where = append(where, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	addFilter("document_id", query.DocumentID)
	addFilter("organization_id", query.OrganizationID)
	addFilter("performed_by", query.PerformedBy)
	addFilter("action", strings.ToUpper(query.Action))
	addFilter("status", strings.ToUpper(query.Status))

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM deletion_audits %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT id, document_id, document_snapshot, performed_by, organization_id, action, status,
		        reason, ip_address, user_agent, overwrite_method, overwrite_passes, error_message,
		        completed_at, created_at
		 FROM deletion_audits %s
		 ORDER BY created_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var snapshotJSON []byte
		var action, status string

		if err := rows.Scan(
			&e.ID, &e.DocumentID, &snapshotJSON, &e.PerformedBy, &e.OrganizationID, &action, &status,
			&e.Reason, &e.IPAddress, &e.UserAgent, &e.OverwriteMethod, &e.OverwritePasses, &e.ErrorMessage,
			&e.CompletedAt, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}

		e.Action = model.AuditAction(action)
		e.Status = model.AuditStatus(status)
		if len(snapshotJSON) > 0 {
			if err := json.Unmarshal(snapshotJSON, &e.DocumentSnapshot); err != nil {
				return nil, 0, fmt.Errorf("decode document snapshot: %w", err)
			}
		}

		entries = append(entries, e)
	}

	return entries, total, rows.Err()
}
