package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsJobs(t *testing.T) {
	pool := NewWorkerPool(2, 10, 0)
	pool.Start()

	var ran atomic.Int32
	done := make(chan error, 5)
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(Job{
			ID: "job",
			Task: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			},
			OnDone: func(err error) { done <- err },
		}))
	}
	for i := 0; i < 5; i++ {
		assert.NoError(t, <-done)
	}

	require.NoError(t, pool.Shutdown(time.Second))
	assert.EqualValues(t, 5, ran.Load())

	stats := pool.GetStats()
	assert.EqualValues(t, 5, stats.SubmittedJobs)
	assert.EqualValues(t, 5, stats.CompletedJobs)
	assert.Zero(t, stats.FailedJobs)
}

func TestPoolRetriesThenFails(t *testing.T) {
	pool := NewWorkerPool(1, 1, 2)
	pool.SetRetryDelay(time.Millisecond)
	pool.Start()
	defer pool.Shutdown(time.Second)

	boom := errors.New("boom")
	var attempts atomic.Int32
	done := make(chan error, 1)
	require.NoError(t, pool.Submit(Job{
		ID: "flaky",
		Task: func(ctx context.Context) error {
			attempts.Add(1)
			return boom
		},
		OnDone: func(err error) { done <- err },
	}))

	assert.ErrorIs(t, <-done, boom)
	assert.EqualValues(t, 3, attempts.Load())
	assert.EqualValues(t, 1, pool.GetStats().FailedJobs)
}

func TestPoolRetryOnStopsEarly(t *testing.T) {
	pool := NewWorkerPool(1, 1, 5)
	pool.SetRetryDelay(time.Millisecond)
	pool.Start()
	defer pool.Shutdown(time.Second)

	var attempts atomic.Int32
	done := make(chan error, 1)
	require.NoError(t, pool.Submit(Job{
		ID:      "permanent",
		Task:    func(ctx context.Context) error { attempts.Add(1); return errors.New("permanent") },
		RetryOn: func(error) bool { return false },
		OnDone:  func(err error) { done <- err },
	}))

	assert.Error(t, <-done)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := NewWorkerPool(1, 1, 0)
	pool.Start()
	defer pool.Shutdown(time.Second)

	done := make(chan error, 1)
	require.NoError(t, pool.Submit(Job{
		ID:     "panics",
		Task:   func(ctx context.Context) error { panic("oops") },
		OnDone: func(err error) { done <- err },
	}))

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestSubmitQueueFullAndClosed(t *testing.T) {
	pool := NewWorkerPool(1, 1, 0)

	noop := Job{ID: "noop", Task: func(ctx context.Context) error { return nil }}
	require.NoError(t, pool.Submit(noop))
	assert.ErrorIs(t, pool.Submit(noop), ErrQueueFull)
	assert.EqualValues(t, 1, pool.GetStats().RejectedJobs)

	pool.Start()
	require.NoError(t, pool.Shutdown(time.Second))
	assert.ErrorIs(t, pool.Submit(noop), ErrPoolClosed)
	assert.NoError(t, pool.Shutdown(time.Second))
}
