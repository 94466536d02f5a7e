package ingest

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

// State is the lifecycle state of a controller.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateIdle; st <= StateFailed; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// Terminal reports whether the state ends a session.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

var (
	// ErrAlreadyRunning is returned by Start while a session is running.
	ErrAlreadyRunning = errors.New("a session is already running")

	// ErrTruncatedStream is the failure of a session whose stream ended
	// without a complete or error event.
	ErrTruncatedStream = errors.New("stream ended without a terminal event")

	// ErrNoTransport is returned by NewController without a transport.
	ErrNoTransport = errors.New("controller requires a transport")
)

// ProducerError is the failure of a session whose producer sent an error
// event.
type ProducerError struct {
	Message string
}

func (e *ProducerError) Error() string {
	if e.Message == "" {
		return "producer reported an error"
	}
	return "producer reported an error: " + e.Message
}

// Outcome is how a session ended. Trace is set only for StateCompleted and
// Err only for StateFailed.
type Outcome struct {
	State State
	Trace *rlm.Trace
	Err   error
}
