package transport

import (
	"context"
	"fmt"
	"io"
	"os"
)

// File replays a captured stream from disk. The request is ignored apart
// from cancellation.
type File struct {
	path string
}

// NewFile returns a transport replaying the capture at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Open opens the capture file. Cancelling ctx closes it, which makes pending
// reads fail.
func (f *File) Open(ctx context.Context, _ Request) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}
	return newContextReadCloser(ctx, file), nil
}

// contextReadCloser fails reads once its context is done.
type contextReadCloser struct {
	ctx context.Context
	rc  io.ReadCloser
}

func newContextReadCloser(ctx context.Context, rc io.ReadCloser) io.ReadCloser {
	return &contextReadCloser{ctx: ctx, rc: rc}
}

func (c *contextReadCloser) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.rc.Read(p)
}

func (c *contextReadCloser) Close() error {
	return c.rc.Close()
}
