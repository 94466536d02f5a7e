// Package sse splits a chunked Server-Sent Events byte stream into frames.
//
// A frame is the text between two "\n\n" boundaries. Frames are only emitted
// once their boundary has been seen, so the sequence of frames does not
// depend on how the stream was chunked on the way in. Text left after the
// last boundary when the stream ends is an incomplete frame and is dropped.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// Event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

// Frame is one delimited block of the stream.
type Frame struct {
	// Raw is the frame text exactly as received, without the trailing
	// "\n\n" delimiter.
	Raw string

	// Data is the concatenated contents of all "data:" lines of the frame,
	// joined with "\n".
	Data string

	// Type is the value of the "event:" field, if present.
	Type string

	// ID is the value of the "id:" field, if present.
	ID string

	// IsData is set when the first non-blank line of the frame is a "data:"
	// line. Only such frames carry events; comments, keep-alives and
	// metadata-only frames do not.
	IsData bool
}

// parseFrame parses the fields of a raw frame.
//
// In the event stream format a line has the form "field:value" where the first
// space after the colon is optional and stripped if present.
func parseFrame(raw string) Frame {
	f := Frame{Raw: raw}

	var data []string
	first := true
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if first {
			f.IsData = field == "data"
			first = false
		}

		switch field {
		case "":
			// Comment line.
		case "data":
			data = append(data, value)
		case "event":
			f.Type = value
		case "id":
			f.ID = value
		default:
			// "retry" and unknown fields are ignored.
		}
	}

	f.Data = strings.Join(data, "\n")
	return f
}
