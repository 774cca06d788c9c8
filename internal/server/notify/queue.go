package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/hibiken/asynq"
)

// TypeDeliverCredentials is the asynq task type for credential emails.
const TypeDeliverCredentials = "credentials:deliver"

// TaskID is unique per issued credential, so a repeated enqueue of the same
// credential is dropped by the broker.
func TaskID(cred Credential) string {
	return fmt.Sprintf("credentials:%s:%d", cred.UserID, cred.Version)
}

func NewDeliverTask(cred Credential) (*asynq.Task, error) {
	payload, err := json.Marshal(cred)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeliverCredentials, payload), nil
}

// Enqueuer is the part of *asynq.Client used by QueueNotifier.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands credentials to the asynq queue. Deliver returns once the
// task is persisted in Redis; the worker does the actual send.
type QueueNotifier struct {
	client   Enqueuer
	maxRetry int
	timeout  time.Duration
}

// QueueOption configures a QueueNotifier.
type QueueOption func(*QueueNotifier)

func WithMaxRetry(n int) QueueOption {
	return func(q *QueueNotifier) {
		q.maxRetry = n
	}
}

// WithTaskTimeout bounds a single processing attempt on the worker side.
func WithTaskTimeout(d time.Duration) QueueOption {
	return func(q *QueueNotifier) {
		q.timeout = d
	}
}

func NewQueueNotifier(client Enqueuer, opts ...QueueOption) *QueueNotifier {
	q := &QueueNotifier{
		client:   client,
		maxRetry: 5,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *QueueNotifier) Deliver(ctx context.Context, cred Credential) error {
	task, err := NewDeliverTask(cred)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}

	_, err = q.client.EnqueueContext(ctx, task,
		asynq.TaskID(TaskID(cred)),
		asynq.MaxRetry(q.maxRetry),
		asynq.Timeout(q.timeout),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("%w: enqueue: %v", common.ErrDeliveryFailed, err)
	}
	return nil
}
