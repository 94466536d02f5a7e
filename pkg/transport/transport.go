package transport

import (
	"context"
	"fmt"
	"io"
)

// Transport opens the stream of a run. Closing the returned body, or
// cancelling ctx, stops the stream.
type Transport interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// StatusError is returned when the upstream producer rejects a run before
// streaming any frame.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}
