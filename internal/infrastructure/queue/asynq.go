package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
)

const (
	TypeWebhook = "webhook:emit"

	webhookMaxRetry = 5
)

type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) (*TaskEnqueuer, error) {
	client := asynq.NewClient(redisOpt)
	return &TaskEnqueuer{client: client, log: log}, nil
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

// NewWebhookTask builds the delivery task for event. The event ID doubles as task ID.
func NewWebhookTask(event ports.AuditEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(webhookMaxRetry)}
	if event.ID != "" {
		opts = append(opts, asynq.TaskID(event.ID))
	}
	return asynq.NewTask(TypeWebhook, payload, opts...), nil
}

func (q *TaskEnqueuer) EnqueueWebhook(ctx context.Context, event ports.AuditEvent) error {
	task, err := NewWebhookTask(event)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("event", event.Event).Str("project", event.Project).Msg("enqueue webhook failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
