package eventstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTraceEvent is returned when a publisher is handed a nil event.
	ErrNilTraceEvent = errors.New("nil trace event")

	// ErrMissingTraceID is returned for events whose trace has no ID, which
	// consumers need as the message key.
	ErrMissingTraceID = errors.New("trace event has no trace ID")
)

// Validate reports whether e can be published.
func (e *TraceCompletedEvent) Validate() error {
	switch {
	case e == nil:
		return ErrNilTraceEvent
	case e.Trace.ID == "":
		return ErrMissingTraceID
	case e.SchemaVersion != SchemaVersionV1:
		return fmt.Errorf("unsupported trace event schema version %d", e.SchemaVersion)
	}
	return nil
}
