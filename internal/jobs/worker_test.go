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

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorker_TracksOutcomes(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	w.Enqueue("ok", func(ctx context.Context) error { return nil })
	w.EnqueueAsync("fails", func(ctx context.Context) error { return errors.New("boom") })
	w.EnqueueAsync("panics", func(ctx context.Context) error { panic("bad") })

	waitFor(t, func() bool { return w.GetStats().CompletedJobs == 3 })

	stats := w.GetStats()
	assert.Equal(t, int64(2), stats.FailedJobs)
	assert.Equal(t, 0, stats.ActiveJobs)
	assert.Equal(t, 10, stats.MaxConcurrent)
}

func TestWorker_ScheduleEvery(t *testing.T) {
	w := NewWorker(1)
	var runs atomic.Int32

	w.ScheduleEvery("tick", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	waitFor(t, func() bool { return runs.Load() >= 2 })
	w.Shutdown()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after shutdown")
}

func TestWorker_ShutdownCancelsContext(t *testing.T) {
	w := NewWorker(1)
	started := make(chan struct{})

	w.EnqueueAsync("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	w.Shutdown()
	require.Error(t, w.Context().Err())
	w.Shutdown()
}
