// Package orchestrator implements the default skiplist.Orchestrator: a
// small fixed worker pool that drains a buffered queue of deferred jobs
// so that callers scheduling physical unlinks do not wait for them to
// run; a caller blocks only while the queue is full.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Close when the pool has already been shut
// down. Run has no return value: a job submitted after Close is dropped
// and logged.
var ErrClosed = errors.New("orchestrator: closed")

// Pool runs jobs submitted via Run on a fixed set of worker goroutines,
// draining whatever is queued before Close returns — the same
// drain-before-exit discipline the teacher applies to its HTTP server on
// SIGTERM, generalized from "stop serving" to "stop scheduling".
type Pool struct {
	jobs    chan func()
	wg      sync.WaitGroup
	logger  *slog.Logger
	closed  atomic.Bool
	closeMu sync.Mutex

	jobsRun     atomic.Int64
	jobsFailed  atomic.Int64
	jobsDropped atomic.Int64
}

// Options configures a Pool.
type Options struct {
	// Workers is the number of goroutines draining the job queue.
	// Defaults to runtime.GOMAXPROCS(0).
	Workers int
	// QueueSize bounds how many pending jobs Run will buffer before it
	// blocks the caller. Defaults to 1024.
	QueueSize int
	Logger    *slog.Logger
}

// New starts a Pool and its worker goroutines.
func New(opts Options) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		jobs:   make(chan func(), queueSize),
		logger: logger,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.runJob(job)
	}
}

func (p *Pool) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.jobsFailed.Add(1)
			p.logger.Error("orchestrator: job panicked", "recovered", r)
			return
		}
		p.jobsRun.Add(1)
	}()
	job()
}

// Run enqueues job for execution on a worker goroutine. If the pool has
// been closed, job is dropped and logged rather than run or blocked on,
// since Close has already stopped consuming the queue.
func (p *Pool) Run(job func()) {
	if p.closed.Load() {
		p.jobsDropped.Add(1)
		p.logger.Warn("orchestrator: job submitted after close, dropping")
		return
	}
	defer func() {
		// The channel may have been closed by a racing Close between the
		// Load above and this send; treat that the same as a drop.
		if r := recover(); r != nil {
			p.jobsDropped.Add(1)
			p.logger.Warn("orchestrator: job submitted during close, dropping")
		}
	}()
	p.jobs <- job
}

// Close stops accepting new jobs and waits for the queue to drain, or
// for ctx to be done, whichever comes first.
func (p *Pool) Close(ctx context.Context) error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed.Swap(true) {
		return ErrClosed
	}
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics is a point-in-time snapshot of the pool's throughput and health,
// the observable signal for a wedged or failing background unlinker.
type Metrics struct {
	JobsRun     int64
	JobsFailed  int64
	JobsDropped int64
}

// Metrics returns a snapshot of the pool's counters.
func (p *Pool) Metrics() Metrics {
	return Metrics{
		JobsRun:     p.jobsRun.Load(),
		JobsFailed:  p.jobsFailed.Load(),
		JobsDropped: p.jobsDropped.Load(),
	}
}
