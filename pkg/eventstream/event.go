// Package eventstream announces finalized traces to downstream consumers.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTraceCompleted is emitted after a session completes and its
	// trace is persisted.
	EventTypeTraceCompleted = "rlmtrace.trace.completed"
)

// TraceCompletedEvent is a transport-neutral event payload for a finalized trace.
type TraceCompletedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	Summary       rlm.LogMetadata `json:"summary"`
	Trace         rlm.Trace       `json:"trace"`
}

// EventSource identifies the run that produced the trace.
type EventSource struct {
	FileName  string `json:"file_name"`
	Backend   string `json:"backend,omitempty"`
	RootModel string `json:"root_model,omitempty"`
}

// NewTraceCompletedEvent builds the event announcing trace.
func NewTraceCompletedEvent(trace rlm.Trace, emittedAt time.Time) *TraceCompletedEvent {
	return &TraceCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTraceCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     emittedAt.UTC(),
		Source: EventSource{
			FileName:  trace.FileName,
			Backend:   trace.Config.Backend,
			RootModel: trace.Config.RootModel,
		},
		Summary: trace.Metadata,
		Trace:   trace,
	}
}
