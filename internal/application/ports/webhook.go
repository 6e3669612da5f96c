package ports

import (
	"context"
	"time"
)

// AuditEvent records one lifecycle operation for external consumers.
type AuditEvent struct {
	ID      string    `json:"id"`
	Event   string    `json:"event"` // project.created, project.updated, project.deleted, project.deleted_all
	Project string    `json:"project,omitempty"`
	Subject string    `json:"subject"`
	Success bool      `json:"success"`
	Err     string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// WebhookEmitter sends audit events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
