package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
)

// InlineEnqueuer delivers webhooks on the calling goroutine when Redis/Asynq is not
// configured. Delivery failures are logged and not retried.
type InlineEnqueuer struct {
	emitter ports.WebhookEmitter
	log     zerolog.Logger
}

func NewInlineEnqueuer(emitter ports.WebhookEmitter, log zerolog.Logger) *InlineEnqueuer {
	return &InlineEnqueuer{emitter: emitter, log: log}
}

func (q *InlineEnqueuer) EnqueueWebhook(ctx context.Context, event ports.AuditEvent) error {
	if q.emitter == nil {
		return nil
	}
	if err := q.emitter.Emit(ctx, event); err != nil {
		q.log.Warn().Err(err).Str("event", event.Event).Str("project", event.Project).Msg("webhook delivery failed")
	}
	return nil
}

var _ ports.TaskEnqueuer = (*InlineEnqueuer)(nil)
