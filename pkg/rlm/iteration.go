// Package rlm defines the canonical records of a recursive language model run:
// iterations, executed code blocks, helper model calls, the run configuration,
// and the finalized trace with its rollup metadata.
//
// These are the internal representation used by the ingestion pipeline after
// normalizing producer-specific field spellings. The JSON tags describe the
// canonical (camelCase) dialect.
package rlm

// Iteration is one step of the reasoning process. Once appended to a trace an
// Iteration is never mutated.
type Iteration struct {
	// Index is the ordinal the producer assigned to this step.
	Index int `json:"iterationNumber"`

	// Timestamp as reported by the producer, verbatim.
	Timestamp string `json:"timestamp"`

	// Prompt sent to the root model. Either free text or a structured
	// message list, as decoded from JSON.
	Prompt any `json:"prompt"`

	// Response is the raw root model response text.
	Response string `json:"response"`

	// CodeBlocks in execution order.
	CodeBlocks []CodeBlock `json:"codeBlocks"`

	// FinalAnswer is nil until the model signals completion.
	FinalAnswer *FinalAnswer `json:"finalAnswer"`

	// IterationTime is the wall time of the step in seconds.
	IterationTime float64 `json:"iterationTime"`
}

// SubCallCount returns the number of helper model calls made by all code
// blocks of the iteration.
func (it Iteration) SubCallCount() int {
	n := 0
	for _, b := range it.CodeBlocks {
		n += len(b.SubLMCalls)
	}
	return n
}

// HasErrors reports whether any code block wrote to stderr.
func (it Iteration) HasErrors() bool {
	for _, b := range it.CodeBlocks {
		if b.Stderr != "" {
			return true
		}
	}
	return false
}

// CodeBlock is source code paired with the result of executing it.
// The result fields are flattened into the block in JSON.
type CodeBlock struct {
	Code string `json:"code"`
	REPLResult
}

// REPLResult is the outcome of one executed code block.
type REPLResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// Locals maps names defined by the execution to their rendered values.
	Locals map[string]any `json:"locals"`

	// ExecutionTime in seconds.
	ExecutionTime float64 `json:"executionTime"`

	// SubLMCalls made during the execution, in call order.
	SubLMCalls []ChatCompletionCall `json:"subLmCalls"`
}
