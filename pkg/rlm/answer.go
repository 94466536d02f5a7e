package rlm

import (
	"encoding/json"
	"fmt"
)

// FinalAnswer is the answer an iteration reported. Producers send either a
// plain string or a two-element tuple whose second element is the answer to
// display; the tuple shape is preserved so the record round-trips.
type FinalAnswer struct {
	// Text is the displayable answer.
	Text string

	// Context is the first tuple element. Only meaningful when Tuple is set.
	Context string

	Tuple bool
}

// NewTextAnswer returns a plain text answer.
func NewTextAnswer(text string) *FinalAnswer {
	return &FinalAnswer{Text: text}
}

// NewTupleAnswer returns a tuple answer whose displayable part is text.
func NewTupleAnswer(context, text string) *FinalAnswer {
	return &FinalAnswer{Text: text, Context: context, Tuple: true}
}

// Display returns the answer to show to a user.
func (a FinalAnswer) Display() string {
	return a.Text
}

func (a FinalAnswer) MarshalJSON() ([]byte, error) {
	if a.Tuple {
		return json.Marshal([2]string{a.Context, a.Text})
	}
	return json.Marshal(a.Text)
}

func (a *FinalAnswer) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch val := v.(type) {
	case string:
		*a = FinalAnswer{Text: val}
	case []any:
		if len(val) == 2 {
			*a = FinalAnswer{Context: Stringify(val[0]), Text: Stringify(val[1]), Tuple: true}
			return nil
		}
		*a = FinalAnswer{Text: string(data)}
	default:
		*a = FinalAnswer{Text: Stringify(val)}
	}
	return nil
}

// Stringify renders a decoded JSON value as text: strings verbatim, null as
// the empty string, everything else as compact JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
