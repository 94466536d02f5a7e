package rlm

// LogMetadata is the rollup of a finalized iteration sequence. It is always
// derived, never edited directly.
type LogMetadata struct {
	TotalIterations       int     `json:"totalIterations"`
	TotalCodeBlocks       int     `json:"totalCodeBlocks"`
	TotalSubLMCalls       int     `json:"totalSubLMCalls"`
	FinalAnswer           *string `json:"finalAnswer"`
	TotalExecutionTime    float64 `json:"totalExecutionTime"`
	HasErrors             bool    `json:"hasErrors"`
	TotalPromptTokens     int     `json:"totalPromptTokens"`
	TotalCompletionTokens int     `json:"totalCompletionTokens"`
}

// Rollup folds iterations into LogMetadata one at a time. Aggregate is defined
// as a fold over Rollup.Add, so an incrementally maintained Rollup and a fresh
// Aggregate over the same sequence agree exactly, float sums included.
type Rollup struct {
	meta LogMetadata
}

// Add folds the next iteration, in arrival order, into the rollup.
func (r *Rollup) Add(it Iteration) {
	r.meta.TotalIterations++
	r.meta.TotalCodeBlocks += len(it.CodeBlocks)
	r.meta.TotalExecutionTime += it.IterationTime

	for _, b := range it.CodeBlocks {
		if b.Stderr != "" {
			r.meta.HasErrors = true
		}
		r.meta.TotalSubLMCalls += len(b.SubLMCalls)
		for _, call := range b.SubLMCalls {
			r.meta.TotalPromptTokens += call.InputTokens
			r.meta.TotalCompletionTokens += call.OutputTokens
		}
	}

	// The last iteration carrying an answer wins.
	if it.FinalAnswer != nil {
		answer := it.FinalAnswer.Display()
		r.meta.FinalAnswer = &answer
	}
}

// Metadata returns a copy of the current rollup.
func (r *Rollup) Metadata() LogMetadata {
	meta := r.meta
	if meta.FinalAnswer != nil {
		answer := *meta.FinalAnswer
		meta.FinalAnswer = &answer
	}
	return meta
}

// Aggregate computes LogMetadata for an iteration sequence from scratch.
func Aggregate(iterations []Iteration) LogMetadata {
	var r Rollup
	for _, it := range iterations {
		r.Add(it)
	}
	return r.Metadata()
}
