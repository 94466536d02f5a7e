package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/rlmtrace/pkg/transport"
)

// Subscription is the consumer's handle on one session.
type Subscription struct {
	// ID identifies the session. Captures and traces are named after it.
	ID string

	// StartedAt is when the session was started.
	StartedAt time.Time

	req        transport.Request
	controller *Controller
	acc        *Accumulator

	snapshot atomic.Pointer[Snapshot]
	outcome  atomic.Pointer[Outcome]
	updates  chan Snapshot
	done     chan struct{}

	changedMu sync.Mutex
	changed   chan struct{}

	cancel context.CancelFunc
	settled sync.Once
}

func newSubscription(id string, req transport.Request, c *Controller, cancel context.CancelFunc, now time.Time) *Subscription {
	s := &Subscription{
		ID:         id,
		StartedAt:  now,
		req:        req,
		controller: c,
		acc:        NewAccumulator(),
		updates:    make(chan Snapshot, 1),
		done:       make(chan struct{}),
		changed:    make(chan struct{}),
		cancel:     cancel,
	}
	empty := s.acc.Snapshot()
	s.snapshot.Store(&empty)
	return s
}

// Request returns the request the session was started with.
func (s *Subscription) Request() transport.Request {
	return s.req
}

// Updates delivers snapshots as the session progresses. Only the latest
// undelivered snapshot is kept, so a slow reader skips intermediate ones.
// The channel is closed when the session ends.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Changed returns a channel that is closed at the next snapshot. Unlike
// Updates it may be watched by any number of readers, each calling Changed
// again after it fires and reading Snapshot.
func (s *Subscription) Changed() <-chan struct{} {
	s.changedMu.Lock()
	defer s.changedMu.Unlock()
	return s.changed
}

// Snapshot returns the most recent snapshot.
func (s *Subscription) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

// Done is closed when the session ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Outcome returns how the session ended, and false while it is running.
func (s *Subscription) Outcome() (Outcome, bool) {
	o := s.outcome.Load()
	if o == nil {
		return Outcome{State: StateRunning}, false
	}
	return *o, true
}

// Wait blocks until the session ends or ctx is done.
func (s *Subscription) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		o, _ := s.Outcome()
		return o, nil
	case <-ctx.Done():
		return Outcome{State: StateRunning}, ctx.Err()
	}
}

// Cancel stops the session. It is a no-op once the session has ended.
func (s *Subscription) Cancel() {
	s.controller.cancelSession(s)
}

// publish stores snap and offers it on Updates, replacing any snapshot the
// reader has not taken yet. Callers hold the controller lock.
func (s *Subscription) publish(snap Snapshot) {
	s.snapshot.Store(&snap)

	s.changedMu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.changedMu.Unlock()

	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}

// settle records the outcome and releases the session. Callers hold the
// controller lock.
func (s *Subscription) settle(o Outcome) {
	s.settled.Do(func() {
		s.outcome.Store(&o)
		close(s.updates)
		close(s.done)
		s.cancel()
	})
}
