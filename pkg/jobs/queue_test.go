package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesByKind(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	got := make(chan Job, 1)
	q.Handle("sessions.generate", func(ctx context.Context, job Job) error {
		got <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Kind: "sessions.generate", Payload: 7})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case job := <-got:
		assert.Equal(t, id, job.ID)
		assert.Equal(t, 7, job.Payload)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	q := NewQueue("retry", QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	var calls int32
	done := make(chan struct{})
	q.Handle("flaky", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Kind: "flaky"})
	require.NoError(t, err)

	select {
	case <-done:
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueueRejectsUnknownKindAndUnstarted(t *testing.T) {
	q := NewQueue("reject", QueueConfig{})
	q.Handle("known", func(ctx context.Context, job Job) error { return nil })

	_, err := q.Enqueue(Job{Kind: "known"})
	require.Error(t, err)

	q.Start(context.Background())
	defer q.Stop()

	_, err = q.Enqueue(Job{Kind: "unknown"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
