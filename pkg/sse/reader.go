package sse

import (
	"errors"
	"io"
)

const readChunkSize = 32 * 1024

// Reader reads data frames from a source io.Reader while simultaneously
// writing all raw bytes verbatim to an optional destination io.Writer.
// This enables "tee" shaped reading where Reader.Next returns the Frame for
// consumption while the destination receives an exact copy of the stream,
// for example a capture file used for replay.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
type Reader struct {
	src      io.Reader
	dest     io.Writer
	splitter Splitter
	chunk    []byte

	skipped   int
	truncated int
	done      bool
}

// NewReader returns a Reader that yields data frames from src and writes all
// raw bytes through to dest. dest may be nil.
func NewReader(src io.Reader, dest io.Writer) *Reader {
	return &Reader{
		src:   src,
		dest:  dest,
		chunk: make([]byte, readChunkSize),
	}
}

// Next returns the next data frame. It blocks until a complete frame is
// available. Frames that are not data frames are skipped and counted.
// Next returns nil, nil when the source is exhausted; any incomplete trailing
// frame is dropped and its size reported by Truncated.
func (r *Reader) Next() (*Frame, error) {
	for {
		if f, ok := r.splitter.Next(); ok {
			if !f.IsData {
				r.skipped++
				continue
			}
			return &f, nil
		}

		if r.done {
			r.truncated = r.splitter.Pending()
			return nil, nil
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			if r.dest != nil {
				if _, werr := r.dest.Write(r.chunk[:n]); werr != nil {
					return nil, werr
				}
			}
			_, _ = r.splitter.Write(r.chunk[:n])
		}

		if errors.Is(err, io.EOF) {
			r.done = true
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

// Skipped returns the number of non-data frames skipped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Truncated returns the size in bytes of the incomplete frame dropped at the
// end of the stream. It is zero until the source is exhausted.
func (r *Reader) Truncated() int {
	return r.truncated
}
