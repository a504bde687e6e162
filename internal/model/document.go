package model

import "time"

// Document is the subset of an uploaded document that the deletion lifecycle
// reads and transitions.
type Document struct {
	ID                    string     `json:"id"`
	OwnerID               string     `json:"owner_id"`
	OrganizationID        string     `json:"organization_id,omitempty"`
	Filename              string     `json:"filename"`
	OriginalName          string     `json:"original_name"`
	StoragePath           string     `json:"storage_path"`
	Size                  int64      `json:"size"`
	ContentType           string     `json:"content_type"`
	IsDeleted             bool       `json:"is_deleted"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty"`
	DeletedBy             *string    `json:"deleted_by,omitempty"`
	DeletionReason        *string    `json:"deletion_reason,omitempty"`
	ScheduledDeletionDate *time.Time `json:"scheduled_deletion_date,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (d *Document) IsOwnedBy(userID string) bool {
	return d != nil && userID != "" && d.OwnerID == userID
}

// Snapshot copies the metadata that must survive the document row.
func (d *Document) Snapshot() DocumentSnapshot {
	return DocumentSnapshot{
		Filename:       d.Filename,
		OriginalName:   d.OriginalName,
		Size:           d.Size,
		ContentType:    d.ContentType,
		StoragePath:    d.StoragePath,
		OrganizationID: d.OrganizationID,
	}
}

// DocumentFilter selects documents for trash listings and retention sweeps.
// Zero values are ignored.
type DocumentFilter struct {
	OwnerID        string
	OrganizationID string
	OnlyDeleted    bool
	ScheduledUntil *time.Time
}

// Matches reports whether doc satisfies every set field of the filter.
func (f DocumentFilter) Matches(doc Document) bool {
	if f.OwnerID != "" && doc.OwnerID != f.OwnerID {
		return false
	}
	if f.OrganizationID != "" && doc.OrganizationID != f.OrganizationID {
		return false
	}
	if f.OnlyDeleted && !doc.IsDeleted {
		return false
	}
	if f.ScheduledUntil != nil {
		if doc.ScheduledDeletionDate == nil || doc.ScheduledDeletionDate.After(*f.ScheduledUntil) {
			return false
		}
	}

	return true
}
