package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsImmediately(t *testing.T) {
	s := NewScheduler(context.Background(), nil)
	ran := make(chan bool, 1)
	require.NoError(t, s.Register("warmup", "@every 1h", time.Second, true, func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		ran <- hasDeadline
		return nil
	}))
	s.Start()
	defer s.Stop()

	select {
	case hasDeadline := <-ran:
		assert.True(t, hasDeadline)
	case <-time.After(time.Second):
		t.Fatal("task did not run on registration")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), nil)
	assert.Error(t, s.Register("bad", "every now and then", 0, false, func(context.Context) error { return nil }))
}

func TestSchedulerStopWaitsForImmediateRun(t *testing.T) {
	s := NewScheduler(context.Background(), nil)
	started := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, s.Register("warmup", "@every 1h", 0, true, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	}))
	s.Start()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("task did not run on registration")
	}
	s.Stop()
	assert.True(t, finished.Load())
}
