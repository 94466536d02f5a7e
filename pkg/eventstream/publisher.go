package eventstream

import "context"

// Publisher announces completed traces. Implementations validate events
// with TraceCompletedEvent.Validate before sending them.
type Publisher interface {
	PublishTrace(ctx context.Context, event *TraceCompletedEvent) error
	Close() error
}
