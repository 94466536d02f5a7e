// Package worker provides an asynchronous worker pool for persisting
// finalized traces to a storage.TraceStore and announcing them on an
// eventstream.Publisher.
//
// The pool decouples storage and publishing from the session controller so a
// slow database never holds up the next session.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/rlmtrace/pkg/eventstream"
	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Trace rlm.Trace
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Store is the storage backend for persisting traces.
	Store storage.TraceStore

	// Publisher optionally announces stored traces. Nil disables publishing.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger

	// Now stamps published events. Defaults to time.Now.
	Now func() time.Time
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Store == nil {
		return nil, errors.New("trace store is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger.OrNop(c.Logger).With("component", "worker"),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"trace_id", job.Trace.ID,
			"file_name", job.Trace.FileName,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"trace_id", job.Trace.ID,
			"file_name", job.Trace.FileName,
		)
		return false
	}
}

// EnqueueTrace adapts Enqueue to the controller's completion callback.
func (p *Pool) EnqueueTrace(trace rlm.Trace) {
	p.Enqueue(Job{Trace: trace})
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after no more sessions can complete.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", "worker_id", id)
}

// processJob stores the trace and then publishes it. A trace that fails to
// store is not published.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	trace := job.Trace

	if err := p.config.Store.Put(ctx, &trace); err != nil {
		p.logger.Error("async trace storage failed",
			"trace_id", trace.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("trace stored",
		"trace_id", trace.ID,
		"file_name", trace.FileName,
		"iterations", trace.Metadata.TotalIterations,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewTraceCompletedEvent(trace, p.config.Now())
	if err := p.config.Publisher.PublishTrace(ctx, event); err != nil {
		p.logger.Warn("failed to publish trace event",
			"trace_id", trace.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("trace event published",
		"trace_id", trace.ID,
		"event_id", event.EventID,
	)
}
