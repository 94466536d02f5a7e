package event

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/rlmtrace/pkg/rlm/normalize"
)

// Decode parses a frame payload into an Event.
//
// Payloads that do not parse, or lack a string "type", return an error
// wrapping ErrMalformed. Unrecognized types return an error wrapping
// ErrUnknownType. Both are recoverable: the caller drops the frame and
// continues with the next one.
func Decode(payload string) (Event, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformed)
	}

	t, ok := m["type"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch Type(t) {
	case TypeToken:
		content, iteration := normalize.Token(m)
		return Token{Content: content, Iteration: iteration}, nil
	case TypeCodeResult:
		return CodeResult{
			Iteration: normalize.CodeResultIteration(m),
			Block:     normalize.CodeBlock(m),
		}, nil
	case TypeMetadata:
		return Metadata{Config: normalize.RunConfig(m)}, nil
	case TypeIteration:
		return Iteration{Iteration: normalize.Iteration(m)}, nil
	case TypeComplete:
		return Complete{}, nil
	case TypeError:
		return Error{Message: normalize.ErrorMessage(m)}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}
