package async_test

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crushapp/crush-server/internal/async"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPoolRunsAllTasks: Stop drains the queue, so every submitted task has
// run by the time Stop returns.
func TestPoolRunsAllTasks(t *testing.T) {
	pool := async.NewPool(3, 10, discardLogger())

	var ran atomic.Int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() { ran.Add(1) })
	}
	pool.Stop()

	assert.Equal(t, int64(20), ran.Load())
}

// TestPoolOverflowRunsOnSubmitter: with workers blocked and the queue full,
// Submit must run the task inline instead of dropping it.
func TestPoolOverflowRunsOnSubmitter(t *testing.T) {
	pool := async.NewPool(1, 1, discardLogger())

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	pool.Submit(func() { // occupies the single worker
		wg.Done()
		<-release
	})
	wg.Wait()
	pool.Submit(func() { <-release }) // fills the queue

	var inline atomic.Bool
	done := make(chan struct{})
	go func() {
		pool.Submit(func() { inline.Store(true) })
		close(done)
	}()

	// The overflow task must complete while the worker is still blocked.
	<-done
	assert.True(t, inline.Load())

	close(release)
	pool.Stop()
}

// TestPoolSubmitAfterStop: a stopped pool degrades to synchronous execution.
func TestPoolSubmitAfterStop(t *testing.T) {
	pool := async.NewPool(1, 1, discardLogger())
	pool.Stop()

	var ran atomic.Bool
	pool.Submit(func() { ran.Store(true) })
	assert.True(t, ran.Load())

	// Stop is idempotent.
	pool.Stop()
}

// TestPoolSurvivesPanic: a panicking task must not kill the worker.
func TestPoolSurvivesPanic(t *testing.T) {
	pool := async.NewPool(1, 4, discardLogger())

	pool.Submit(func() { panic("boom") })

	var ran atomic.Bool
	pool.Submit(func() { ran.Store(true) })
	pool.Stop()

	assert.True(t, ran.Load())
}
