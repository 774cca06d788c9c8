package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/logging"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "x"}, nil
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) any {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value()
		}
	}
	return nil
}

func TestQueueNotifier_Deliver(t *testing.T) {
	enq := &fakeEnqueuer{}
	q := NewQueueNotifier(enq, WithMaxRetry(7), WithTaskTimeout(time.Minute))

	cred := Credential{UserID: "u-1", Email: "a@b.c", Name: "A", Password: "pw", Version: 2}
	require.NoError(t, q.Deliver(context.Background(), cred))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeDeliverCredentials, enq.tasks[0].Type())

	var got Credential
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &got))
	assert.Equal(t, cred, got)

	assert.Equal(t, "credentials:u-1:2", optionValue(enq.opts[0], asynq.TaskIDOpt))
	assert.Equal(t, 7, optionValue(enq.opts[0], asynq.MaxRetryOpt))
	assert.Equal(t, time.Minute, optionValue(enq.opts[0], asynq.TimeoutOpt))
}

func TestQueueNotifier_DuplicateIsNotAnError(t *testing.T) {
	q := NewQueueNotifier(&fakeEnqueuer{err: asynq.ErrTaskIDConflict})
	assert.NoError(t, q.Deliver(context.Background(), Credential{UserID: "u-1", Version: 1}))
}

func TestQueueNotifier_EnqueueError(t *testing.T) {
	q := NewQueueNotifier(&fakeEnqueuer{err: errors.New("redis down")})
	err := q.Deliver(context.Background(), Credential{UserID: "u-1", Version: 1})
	assert.ErrorIs(t, err, common.ErrDeliveryFailed)
}

type recordingNotifier struct {
	got []Credential
	err error
}

func (r *recordingNotifier) Deliver(ctx context.Context, cred Credential) error {
	r.got = append(r.got, cred)
	return r.err
}

type fakeVersions struct {
	current map[string]int
	err     error
}

func (f *fakeVersions) CredentialVersion(ctx context.Context, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	v, ok := f.current[userID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return v, nil
}

func TestWorker_HandleDeliverTask(t *testing.T) {
	sender := &recordingNotifier{}
	w := &Worker{sender: sender, versions: &fakeVersions{current: map[string]int{"u-1": 3}}, logger: logging.Nop{}}

	task, err := NewDeliverTask(Credential{UserID: "u-1", Email: "a@b.c", Password: "pw", Version: 3})
	require.NoError(t, err)

	require.NoError(t, w.HandleDeliverTask(context.Background(), task))
	require.Len(t, sender.got, 1)
	assert.Equal(t, "pw", sender.got[0].Password)
}

func TestWorker_BadPayloadSkipsRetry(t *testing.T) {
	w := &Worker{sender: &recordingNotifier{}, versions: &fakeVersions{}, logger: logging.Nop{}}

	err := w.HandleDeliverTask(context.Background(), asynq.NewTask(TypeDeliverCredentials, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWorker_SenderErrorIsRetried(t *testing.T) {
	w := &Worker{
		sender:   &recordingNotifier{err: common.ErrDeliveryFailed},
		versions: &fakeVersions{current: map[string]int{"u-1": 1}},
		logger:   logging.Nop{},
	}

	task, _ := NewDeliverTask(Credential{UserID: "u-1", Version: 1})
	err := w.HandleDeliverTask(context.Background(), task)
	assert.ErrorIs(t, err, common.ErrDeliveryFailed)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestWorker_SupersededCredentialIsDropped(t *testing.T) {
	sender := &recordingNotifier{}
	versions := &fakeVersions{current: map[string]int{"u-1": 1}}
	w := &Worker{sender: sender, versions: versions, logger: logging.Nop{}}

	// approval queued v1; a resend replaced it with v2 before the v1 retry ran
	v1, err := NewDeliverTask(Credential{UserID: "u-1", Password: "old-pass", Version: 1})
	require.NoError(t, err)
	v2, err := NewDeliverTask(Credential{UserID: "u-1", Password: "new-pass", Version: 2})
	require.NoError(t, err)
	versions.current["u-1"] = 2

	err = w.HandleDeliverTask(context.Background(), v1)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, sender.got)

	require.NoError(t, w.HandleDeliverTask(context.Background(), v2))
	require.Len(t, sender.got, 1)
	assert.Equal(t, "new-pass", sender.got[0].Password)
}

func TestWorker_DeletedUserIsDropped(t *testing.T) {
	sender := &recordingNotifier{}
	w := &Worker{sender: sender, versions: &fakeVersions{current: map[string]int{}}, logger: logging.Nop{}}

	task, _ := NewDeliverTask(Credential{UserID: "gone", Version: 1})
	assert.ErrorIs(t, w.HandleDeliverTask(context.Background(), task), asynq.SkipRetry)
	assert.Empty(t, sender.got)
}

func TestWorker_VersionLookupErrorIsRetried(t *testing.T) {
	sender := &recordingNotifier{}
	boom := errors.New("db down")
	w := &Worker{sender: sender, versions: &fakeVersions{err: boom}, logger: logging.Nop{}}

	task, _ := NewDeliverTask(Credential{UserID: "u-1", Version: 1})
	err := w.HandleDeliverTask(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, sender.got)
}

func TestRetryDelay(t *testing.T) {
	f := RetryDelay(10 * time.Second)
	assert.Equal(t, 2*time.Second, f(1, nil, nil))
	assert.Equal(t, 10*time.Second, f(8, nil, nil))
	assert.Equal(t, 10*time.Second, f(100, nil, nil))
}
