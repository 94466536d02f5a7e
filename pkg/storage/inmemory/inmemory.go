// Package inmemory provides a map-backed trace store for tests and
// ephemeral servers.
package inmemory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

// Store implements storage.TraceStore using an in-memory map.
type Store struct {
	// mu is a read write sync mutex for locking the mapping of traces
	mu sync.RWMutex

	// traces is the in memory map of traces keyed by trace ID
	traces map[string]*rlm.Trace
}

// NewStore creates a new in-memory trace store.
func NewStore() *Store {
	return &Store{
		traces: make(map[string]*rlm.Trace),
	}
}

// Put stores a copy of the trace.
func (s *Store) Put(_ context.Context, trace *rlm.Trace) error {
	if trace == nil {
		return storage.ErrNilTrace
	}

	stored := *trace
	stored.Iterations = slices.Clone(trace.Iterations)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces[trace.ID] = &stored
	return nil
}

// Get retrieves a trace by ID.
func (s *Store) Get(_ context.Context, id string) (*rlm.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace, ok := s.traces[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	out := *trace
	return &out, nil
}

// List returns traces matching the query, newest first.
func (s *Store) List(_ context.Context, query storage.TraceQuery) ([]*rlm.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*rlm.Trace
	for _, trace := range s.traces {
		if query.FileName != "" && trace.FileName != query.FileName {
			continue
		}
		out := *trace
		results = append(results, &out)
	}

	slices.SortFunc(results, func(a, b *rlm.Trace) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return query.Page(results), nil
}

// Delete removes a trace.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.traces[id]; !ok {
		return storage.NotFoundError{ID: id}
	}
	delete(s.traces, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

