package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/logging"
	"github.com/hibiken/asynq"
)

// VersionSource reports the credential version currently stored for a user.
// Implemented by users.Repository.
type VersionSource interface {
	CredentialVersion(ctx context.Context, userID string) (int, error)
}

// Worker drains credential tasks from Redis and sends them with the wrapped
// Notifier (normally a BrevoSender). Tasks carrying a credential that has
// since been replaced are dropped.
type Worker struct {
	server   *asynq.Server
	sender   Notifier
	versions VersionSource
	logger   logging.Logger
}

// RetryDelay backs off exponentially from one second, capped at maxDelay.
func RetryDelay(maxDelay time.Duration) asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		delay := time.Duration(1<<uint(min(n, 16))) * time.Second
		if delay > maxDelay {
			delay = maxDelay
		}
		return delay
	}
}

func NewWorker(redisOpt asynq.RedisClientOpt, sender Notifier, versions VersionSource, logger logging.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    2,
		RetryDelayFunc: RetryDelay(5 * time.Minute),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn(ctx, "credential delivery attempt failed", "task", task.Type(), "error", err)
		}),
	})

	return &Worker{server: srv, sender: sender, versions: versions, logger: logger}
}

// HandleDeliverTask processes a single credentials:deliver task.
func (w *Worker) HandleDeliverTask(ctx context.Context, task *asynq.Task) error {
	var cred Credential
	if err := json.Unmarshal(task.Payload(), &cred); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	current, err := w.versions.CredentialVersion(ctx, cred.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("user %s no longer exists: %w", cred.UserID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	if cred.Version < current {
		w.logger.Info(ctx, "dropping superseded credentials", "user_id", cred.UserID, "version", cred.Version, "current", current)
		return fmt.Errorf("credential version %d superseded by %d: %w", cred.Version, current, asynq.SkipRetry)
	}

	if err := w.sender.Deliver(ctx, cred); err != nil {
		return err
	}

	w.logger.Info(ctx, "credentials delivered", "user_id", cred.UserID, "version", cred.Version)
	return nil
}

// Mux routes task types to handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeliverCredentials, w.HandleDeliverTask)
	return mux
}

// Start runs the worker in the background until Shutdown.
func (w *Worker) Start() error {
	if err := w.server.Start(w.Mux()); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	return nil
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
