package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
)

// Lifecycle audit events.
const (
	EventProjectCreated    = "project.created"
	EventProjectUpdated    = "project.updated"
	EventProjectDeleted    = "project.deleted"
	EventProjectsDeleteAll = "project.deleted_all"
)

// AuditLog logs a lifecycle event (project, subject, IP). The IP is RemoteAddr as set by the RealIP middleware.
func AuditLog(log zerolog.Logger, r *http.Request, event, project, subject string, success bool, errMsg string) {
	ev := log.Info()
	if !success {
		ev = log.Warn()
	}
	ev.
		Str("event", event).
		Str("project", project).
		Str("subject", subject).
		Str("ip", r.RemoteAddr).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", success)
	if errMsg != "" {
		ev.Str("error", errMsg)
	}
	ev.Msg("project_audit")
}

// AuditEmit logs the event and, if enqueuer is non-nil, queues it for webhook delivery.
// Queue failures are logged only.
func AuditEmit(log zerolog.Logger, r *http.Request, enqueuer ports.TaskEnqueuer, event, project, subject string, success bool, errMsg string) {
	AuditLog(log, r, event, project, subject, success, errMsg)
	if enqueuer == nil {
		return
	}
	err := enqueuer.EnqueueWebhook(r.Context(), ports.AuditEvent{
		ID:      uuid.NewString(),
		Event:   event,
		Project: project,
		Subject: subject,
		Success: success,
		Err:     errMsg,
		At:      time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("queue audit webhook failed")
	}
}
