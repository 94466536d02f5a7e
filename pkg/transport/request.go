// Package transport opens the byte stream a session ingests: a live run
// started against an upstream producer over HTTP, or a previously captured
// stream replayed from disk.
package transport

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMaxIterations bounds a run when the request does not.
	DefaultMaxIterations = 10

	// DefaultBackend is the model backend used when the request names none.
	DefaultBackend = "cerebras"
)

var (
	// ErrEmptyDocument is returned for a request with a blank document.
	ErrEmptyDocument = errors.New("document cannot be empty")

	// ErrEmptyQuestion is returned for a request with a blank question.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)

// Request describes one run: the document to reason over, the question to
// answer, and the run options.
type Request struct {
	// FileName is the name the document was loaded from. It labels the
	// resulting trace and is not sent upstream.
	FileName string `json:"-"`

	Document      string `json:"transcript"`
	Question      string `json:"question"`
	MaxIterations int    `json:"max_iterations"`
	Backend       string `json:"backend"`

	// APIKey for the backend. Never persisted.
	APIKey string `json:"api_key,omitempty"`
}

// WithDefaults returns a copy of the request with unset options filled in.
func (r Request) WithDefaults() Request {
	if r.MaxIterations <= 0 {
		r.MaxIterations = DefaultMaxIterations
	}
	if strings.TrimSpace(r.Backend) == "" {
		r.Backend = DefaultBackend
	}
	return r
}

// Validate rejects requests that cannot start a run.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Document) == "" {
		return ErrEmptyDocument
	}
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyQuestion
	}
	if r.MaxIterations < 0 {
		return fmt.Errorf("max iterations must not be negative, got %d", r.MaxIterations)
	}
	return nil
}
