package sse

import "bytes"

var boundary = []byte("\n\n")

// compactThreshold is how many consumed bytes may sit at the front of the
// buffer before it is compacted.
const compactThreshold = 64 * 1024

// Splitter buffers stream chunks and yields complete frames.
//
// For any input, the frames returned by Next joined with "\n\n", followed by
// Pending bytes, reconstruct the input exactly.
// A Splitter is not safe for concurrent use.
type Splitter struct {
	buf []byte

	// start is the offset of the first unconsumed byte.
	start int

	// scan is the offset to resume the boundary search from, so bytes already
	// known not to contain a boundary are not searched again.
	scan int
}

// Write appends a chunk. It never fails.
func (s *Splitter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// WriteString appends a chunk. It never fails.
func (s *Splitter) WriteString(p string) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Next returns the next complete frame. It returns false when no boundary
// has been buffered yet.
func (s *Splitter) Next() (Frame, bool) {
	i := bytes.Index(s.buf[s.scan:], boundary)
	if i < 0 {
		// The last byte may be the first half of a boundary split across
		// two writes.
		s.scan = max(s.start, len(s.buf)-1)
		s.compact()
		return Frame{}, false
	}

	end := s.scan + i
	raw := string(s.buf[s.start:end])
	s.start = end + len(boundary)
	s.scan = s.start
	return parseFrame(raw), true
}

// Pending returns the number of buffered bytes that do not yet form a
// complete frame.
func (s *Splitter) Pending() int {
	return len(s.buf) - s.start
}

// Reset drops all buffered bytes.
func (s *Splitter) Reset() {
	s.buf = s.buf[:0]
	s.start = 0
	s.scan = 0
}

func (s *Splitter) compact() {
	if s.start == len(s.buf) {
		s.Reset()
		return
	}
	if s.start < compactThreshold {
		return
	}

	n := copy(s.buf, s.buf[s.start:])
	s.buf = s.buf[:n]
	s.scan -= s.start
	s.start = 0
}
