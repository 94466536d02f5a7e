// Package event decodes frame payloads into typed pipeline events.
//
// Each payload is a JSON object carrying a "type" discriminator. Structured
// records (iterations, code results, run metadata) are normalized into the
// canonical rlm types during decoding, so consumers never see producer
// specific field names.
package event

import (
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

// Type is the event discriminator as it appears on the wire.
type Type string

const (
	TypeToken      Type = "token"
	TypeCodeResult Type = "code_result"
	TypeMetadata   Type = "metadata"
	TypeIteration  Type = "iteration"
	TypeComplete   Type = "complete"
	TypeError      Type = "error"
)

// Event is one decoded frame. Events are immutable once decoded.
type Event interface {
	Type() Type
}

// Token is an incremental piece of model output text.
type Token struct {
	Content string

	// Iteration is the producer's hint of which iteration the token belongs
	// to. Zero when absent.
	Iteration int
}

// CodeResult is a code block executed during the iteration in progress.
type CodeResult struct {
	Iteration int
	Block     rlm.CodeBlock
}

// Metadata carries the run configuration.
type Metadata struct {
	Config rlm.RunConfig
}

// Iteration is a finalized iteration.
type Iteration struct {
	Iteration rlm.Iteration
}

// Complete terminates the stream successfully.
type Complete struct{}

// Error terminates the stream with a producer-reported failure.
type Error struct {
	Message string
}

func (Token) Type() Type      { return TypeToken }
func (CodeResult) Type() Type { return TypeCodeResult }
func (Metadata) Type() Type   { return TypeMetadata }
func (Iteration) Type() Type  { return TypeIteration }
func (Complete) Type() Type   { return TypeComplete }
func (Error) Type() Type      { return TypeError }
