package ingest

import (
	"slices"
	"strings"
	"time"

	"github.com/papercomputeco/rlmtrace/pkg/event"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

// Snapshot is an immutable view of a session's progress. Slices in a
// Snapshot are never written to after the Snapshot is taken.
type Snapshot struct {
	// Iterations finalized so far, in arrival order.
	Iterations []rlm.Iteration `json:"iterations"`

	// StreamingText is the model output of the iteration in progress.
	StreamingText string `json:"streamingText"`

	// CodeResults executed during the iteration in progress.
	CodeResults []rlm.CodeBlock `json:"codeResults"`

	// Config is nil until the metadata event arrives.
	Config *rlm.RunConfig `json:"config"`

	// Metadata is the running rollup over Iterations.
	Metadata rlm.LogMetadata `json:"metadata"`

	// CurrentIteration is the producer's hint of the iteration in progress.
	CurrentIteration int `json:"currentIteration"`
}

// Accumulator folds events into the state of one session. It has a single
// owner and is not safe for concurrent use.
type Accumulator struct {
	iterations  []rlm.Iteration
	streaming   strings.Builder
	codeResults []rlm.CodeBlock
	config      *rlm.RunConfig
	rollup      rlm.Rollup
	current     int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Apply folds one event. Terminal events carry no state and are ignored.
func (a *Accumulator) Apply(ev event.Event) {
	switch e := ev.(type) {
	case event.Token:
		a.OnToken(e.Content, e.Iteration)
	case event.CodeResult:
		a.OnCodeResult(e.Iteration, e.Block)
	case event.Iteration:
		a.OnIteration(e.Iteration)
	case event.Metadata:
		a.OnMetadata(e.Config)
	}
}

// OnToken appends streamed text to the iteration in progress.
func (a *Accumulator) OnToken(content string, iteration int) {
	a.streaming.WriteString(content)
	a.hint(iteration)
}

// OnCodeResult records a code block executed in the iteration in progress.
func (a *Accumulator) OnCodeResult(iteration int, block rlm.CodeBlock) {
	a.codeResults = append(a.codeResults, block)
	a.hint(iteration)
}

// OnIteration appends a finalized iteration and clears the in-progress
// streaming text and code results.
func (a *Accumulator) OnIteration(it rlm.Iteration) {
	a.iterations = append(a.iterations, it)
	a.rollup.Add(it)
	a.streaming.Reset()
	a.codeResults = nil
	a.hint(it.Index)
}

// OnMetadata records the run configuration. The last one received wins.
func (a *Accumulator) OnMetadata(cfg rlm.RunConfig) {
	a.config = &cfg
}

// Discard drops all state, finalized iterations included.
func (a *Accumulator) Discard() {
	*a = Accumulator{}
}

func (a *Accumulator) hint(iteration int) {
	if iteration > 0 {
		a.current = iteration
	}
}

// Snapshot returns an immutable view of the current state.
func (a *Accumulator) Snapshot() Snapshot {
	snap := Snapshot{
		Iterations:       slices.Clip(a.iterations),
		StreamingText:    a.streaming.String(),
		CodeResults:      slices.Clip(a.codeResults),
		Metadata:         a.rollup.Metadata(),
		CurrentIteration: a.current,
	}
	if a.config != nil {
		cfg := *a.config
		snap.Config = &cfg
	}
	return snap
}

// Trace finalizes the accumulated iterations into a trace.
func (a *Accumulator) Trace(id, fileName, question string, createdAt time.Time) rlm.Trace {
	t := rlm.Trace{
		ID:         id,
		FileName:   fileName,
		Question:   question,
		CreatedAt:  createdAt,
		Iterations: slices.Clone(a.iterations),
		Metadata:   a.rollup.Metadata(),
	}
	if t.Iterations == nil {
		t.Iterations = []rlm.Iteration{}
	}
	if a.config != nil {
		t.Config = *a.config
	}
	return t
}
