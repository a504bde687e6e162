package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDocumentTrashed      Type = "document.trashed"
	TypeDocumentRestored     Type = "document.restored"
	TypeDocumentErased       Type = "document.erased"
	TypeDocumentEraseFailed  Type = "document.erase_failed"
	TypeRetentionSweepFinish Type = "retention.sweep_completed"
)

// Lifecycle is the payload of document.* events.
type Lifecycle struct {
	DocumentID      string `json:"document_id"`
	OrganizationID  string `json:"organization_id,omitempty"`
	OverwriteMethod string `json:"overwrite_method,omitempty"`
	OverwritePasses int    `json:"overwrite_passes,omitempty"`
	Bytes           int64  `json:"bytes,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Sweep is the payload of retention.sweep_completed.
type Sweep struct {
	Erased   int           `json:"erased"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

func New(eventType Type, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
