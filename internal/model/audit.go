package model

import "time"

type AuditAction string

const (
	AuditActionSoftDelete      AuditAction = "SOFT_DELETE"
	AuditActionRestore         AuditAction = "RESTORE"
	AuditActionPermanentDelete AuditAction = "PERMANENT_DELETE"
)

type AuditStatus string

const (
	AuditStatusPending   AuditStatus = "PENDING"
	AuditStatusCompleted AuditStatus = "COMPLETED"
	AuditStatusFailed    AuditStatus = "FAILED"
)

// AuditActor identifies who triggered a lifecycle action and from where.
type AuditActor struct {
	UserID         string `json:"user_id,omitempty"`
	Username       string `json:"username,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	IP             string `json:"ip,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// DocumentSnapshot is frozen at audit time and kept after erasure.
type DocumentSnapshot struct {
	Filename       string `json:"filename"`
	OriginalName   string `json:"original_name"`
	Size           int64  `json:"size"`
	ContentType    string `json:"content_type"`
	StoragePath    string `json:"storage_path"`
	OrganizationID string `json:"organization_id,omitempty"`
}

type AuditEntry struct {
	ID               string           `json:"id"`
	DocumentID       string           `json:"document_id"`
	DocumentSnapshot DocumentSnapshot `json:"document_snapshot"`
	PerformedBy      string           `json:"performed_by"`
	OrganizationID   string           `json:"organization_id,omitempty"`
	Action           AuditAction      `json:"action"`
	Status           AuditStatus      `json:"status"`
	Reason           string           `json:"reason,omitempty"`
	IPAddress        string           `json:"ip_address,omitempty"`
	UserAgent        string           `json:"user_agent,omitempty"`
	OverwriteMethod  string           `json:"overwrite_method,omitempty"`
	OverwritePasses  int              `json:"overwrite_passes,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// AuditOutcome carries the only fields an audit entry may change after creation.
type AuditOutcome struct {
	Status          AuditStatus
	OverwriteMethod string
	OverwritePasses int
	ErrorMessage    string
	CompletedAt     time.Time
}

type AuditQuery struct {
	DocumentID     string
	OrganizationID string
	PerformedBy    string
	Action         string
	Status         string
	Page           int
	Limit          int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
