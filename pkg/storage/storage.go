// Package storage persists finalized traces.
package storage

import (
	"context"
	"errors"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

// ErrNilTrace is returned when a nil trace is stored.
var ErrNilTrace = errors.New("cannot store nil trace")

// TraceStore defines the interface for persisting and retrieving traces.
// Traces are immutable once stored; storing a trace with an existing ID
// replaces it.
type TraceStore interface {
	// Put stores a trace.
	Put(ctx context.Context, trace *rlm.Trace) error

	// Get retrieves a trace by ID. It returns a NotFoundError when no trace
	// has the ID.
	Get(ctx context.Context, id string) (*rlm.Trace, error)

	// List returns traces matching the query, newest first.
	List(ctx context.Context, query TraceQuery) ([]*rlm.Trace, error)

	// Delete removes a trace. Deleting a missing trace returns a
	// NotFoundError.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}

// TraceQuery defines query parameters for listing traces.
type TraceQuery struct {
	// FileName restricts results to traces of one document.
	FileName string

	Limit  int
	Offset int
}

// Page applies the query's offset and limit to an ordered result set.
func (q TraceQuery) Page(traces []*rlm.Trace) []*rlm.Trace {
	if q.Offset >= len(traces) {
		return []*rlm.Trace{}
	}
	if q.Offset > 0 {
		traces = traces[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(traces) {
		traces = traces[:q.Limit]
	}
	return traces
}
