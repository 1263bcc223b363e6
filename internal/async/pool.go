package async

import (
	"log/slog"
	"sync"
)

// Pool is a bounded worker pool for fire-and-forget work.
//
// Submissions that find the queue full run on the submitter's own goroutine
// (explicit backpressure) rather than being dropped: callers may see higher
// latency under load, never silent loss.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers goroutines draining a queue of queueSize.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks:  make(chan func(), queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.safeRun(task)
	}
}

// safeRun keeps a panicking task from taking a worker down.
func (p *Pool) safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("async task panicked", "panic", r)
		}
	}()
	task()
}

// Submit enqueues task. When the queue is saturated or the pool is stopped,
// the task runs synchronously on the caller's goroutine.
func (p *Pool) Submit(task func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.safeRun(task)
		return
	}

	select {
	case p.tasks <- task:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		p.logger.Warn("async queue saturated, running task on submitter")
		p.safeRun(task)
	}
}

// Stop drains the queue and waits for in-flight tasks. Further submissions
// run inline on the caller.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
