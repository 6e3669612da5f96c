package webhook

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
)

// LogEmitter stands in when WEBHOOK_URL is not set: events only reach the debug log.
type LogEmitter struct {
	log zerolog.Logger
}

func NewLogEmitter(log zerolog.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	e.log.Debug().
		Str("id", event.ID).
		Str("event", event.Event).
		Str("project", event.Project).
		Bool("success", event.Success).
		Msg("webhook disabled; audit event not delivered")
	return nil
}

var _ ports.WebhookEmitter = (*LogEmitter)(nil)
