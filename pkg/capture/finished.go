package capture

import (
	"fmt"
	"os"

	"github.com/papercomputeco/rlmtrace/pkg/event"
	"github.com/papercomputeco/rlmtrace/pkg/sse"
)

// Finished reports whether the capture at path ends with a terminal event,
// that is its last event frame is a complete or error event. A capture of a
// session that is still streaming is not finished.
func Finished(path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading capture: %w", err)
	}

	var s sse.Splitter
	_, _ = s.Write(b)

	var last event.Event
	for {
		frame, ok := s.Next()
		if !ok {
			break
		}
		if !frame.IsData {
			continue
		}
		// Malformed and unknown frames are skipped by replay too.
		if ev, err := event.Decode(frame.Data); err == nil {
			last = ev
		}
	}

	switch last.(type) {
	case event.Complete, event.Error:
		return true, nil
	}
	return false, nil
}
