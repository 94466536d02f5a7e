package event

import "errors"

var (
	// ErrMalformed indicates a payload that is not a JSON object with a
	// string "type" field.
	ErrMalformed = errors.New("malformed event payload")

	// ErrUnknownType indicates a well-formed payload with an unrecognized
	// "type".
	ErrUnknownType = errors.New("unknown event type")
)
