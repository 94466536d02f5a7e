package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/rlmtrace/pkg/eventstream"
)

// RecordingPublisher is an eventstream.Publisher that keeps every event in
// memory. Err, when set, is returned from PublishTrace instead.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.TraceCompletedEvent
	closed bool

	Err error
}

// PublishTrace records the event.
func (p *RecordingPublisher) PublishTrace(_ context.Context, event *eventstream.TraceCompletedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns the recorded events in publish order.
func (p *RecordingPublisher) Events() []*eventstream.TraceCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.TraceCompletedEvent(nil), p.events...)
}

// Close marks the publisher closed.
func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *RecordingPublisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
