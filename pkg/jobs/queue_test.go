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

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	done := make(chan struct{}, 2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 1})

	_, err := q.Enqueue(Job{ID: "early"})
	require.Error(t, err)

	q.Start(context.Background())
	defer q.Stop()

	ok, err := q.Enqueue(Job{ID: "1"})
	require.NoError(t, err)
	assert.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job not processed")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&handled))
}

func TestQueueCoalescesKeyedJobs(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 4)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	_, err := q.Enqueue(Job{ID: "running", Key: "offset"})
	require.NoError(t, err)
	<-started

	ok, err := q.Enqueue(Job{ID: "a", Key: "offset"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = q.Enqueue(Job{ID: "b", Key: "offset"})
	require.NoError(t, err)
	assert.False(t, ok, "second waiting job with same key is dropped")
	assert.Equal(t, 1, q.Pending())
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{ID: "r"})
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}
