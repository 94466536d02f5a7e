package testutils

import (
	"fmt"
	"time"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

// Epoch is a fixed creation time for deterministic test traces.
var Epoch = time.Unix(1735689600, 0).UTC()

// NewTestTrace creates a finalized trace with n iterations, the last one
// carrying a final answer.
func NewTestTrace(id, fileName string, createdAt time.Time, n int) *rlm.Trace {
	its := make([]rlm.Iteration, n)
	for i := range its {
		its[i] = rlm.Iteration{
			Index:         i + 1,
			Timestamp:     createdAt.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
			Prompt:        "question",
			Response:      fmt.Sprintf("step %d", i+1),
			IterationTime: 0.5,
			CodeBlocks: []rlm.CodeBlock{{
				Code: "print(len(context))",
				REPLResult: rlm.REPLResult{
					Stdout:        "42",
					Locals:        map[string]any{"n": "42"},
					ExecutionTime: 0.25,
					SubLMCalls: []rlm.ChatCompletionCall{{
						RootModel:    "test-model",
						Prompt:       "chunk",
						Response:     "summary",
						InputTokens:  10,
						OutputTokens: 5,
						UsageSummary: &rlm.UsageSummary{ModelUsageSummaries: map[string]rlm.ModelUsage{
							"test-model": {TotalCalls: 1, TotalInputTokens: 10, TotalOutputTokens: 5},
						}},
					}},
				},
			}},
		}
	}
	if n > 0 {
		its[n-1].FinalAnswer = rlm.NewTupleAnswer("notes", "42")
	}

	return &rlm.Trace{
		ID:         id,
		FileName:   fileName,
		Question:   "what is the answer?",
		CreatedAt:  createdAt.UTC(),
		Iterations: its,
		Metadata:   rlm.Aggregate(its),
		Config: rlm.RunConfig{
			RootModel:         "test-model",
			MaxIterations:     10,
			Backend:           "cerebras",
			BackendKwargs:     map[string]any{"model_name": "test-model"},
			EnvironmentKwargs: map[string]any{},
			OtherBackends:     []string{},
		},
	}
}
