// Package education derives explanatory annotations from iterations: the
// reasoning phase an iteration belongs to, per-line notes on recognizable
// code idioms, and a one-sentence summary. Everything here is a pure function
// of the iteration, computed on demand and never stored.
package education

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

// Phase is the coarse stage of the reasoning process an iteration shows.
type Phase string

const (
	PhaseExploring    Phase = "exploring"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseAnswering    Phase = "answering"
)

// PhaseInfo is the display text for a phase.
type PhaseInfo struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Importance  string `json:"importance"`
}

var phases = map[Phase]PhaseInfo{
	PhaseExploring: {
		Icon:        "magnifying_glass",
		Title:       "Exploring",
		Explanation: "The model is inspecting the document to learn its structure: how long it is, how it is formatted, and how it could be split into chunks.",
		Importance:  "Understanding the input first is what lets the process handle documents of any length.",
	},
	PhaseAnalyzing: {
		Icon:        "chart_bar",
		Title:       "Analyzing",
		Explanation: "The model is splitting the document into chunks and asking helper models to extract what is relevant to the question from each one.",
		Importance:  "Dividing the problem is how the recursive approach handles inputs too large for a single model call.",
	},
	PhaseSynthesizing: {
		Icon:        "link",
		Title:       "Synthesizing",
		Explanation: "The model is combining findings from different chunks, accumulating them in buffers and querying helper models to fill gaps.",
		Importance:  "Synthesis turns fragmented partial results into one coherent understanding.",
	},
	PhaseAnswering: {
		Icon:        "check_circle",
		Title:       "Answering",
		Explanation: "The model has gathered enough information and signalled its final answer with FINAL() or FINAL_VAR().",
		Importance:  "The answer is built up through the preceding iterations rather than guessed in one step.",
	},
}

// Info returns the display text for a phase. Unknown phases yield a zero
// PhaseInfo.
func Info(p Phase) PhaseInfo {
	return phases[p]
}

// Classify returns the phase of an iteration:
// answering when it carries a non-empty final answer, synthesizing when its
// code both queries helper models and accumulates results, analyzing when it
// queries helper models or its response talks about chunking, and exploring
// otherwise.
func Classify(it rlm.Iteration) Phase {
	if it.FinalAnswer != nil && it.FinalAnswer.Display() != "" {
		return PhaseAnswering
	}

	var queries, accumulates bool
	for _, b := range it.CodeBlocks {
		if strings.Contains(b.Code, "llm_query") {
			queries = true
		}
		if strings.Contains(b.Code, "buffer") || strings.Contains(b.Code, "answer") {
			accumulates = true
		}
	}

	switch {
	case queries && accumulates:
		return PhaseSynthesizing
	case queries:
		return PhaseAnalyzing
	}

	response := strings.ToLower(it.Response)
	if strings.Contains(response, "chunk") || strings.Contains(response, "split") {
		return PhaseAnalyzing
	}
	return PhaseExploring
}

// Summarize describes in one sentence what happened during an iteration.
func Summarize(it rlm.Iteration) string {
	if it.FinalAnswer != nil && it.FinalAnswer.Display() != "" {
		return "Found the answer after analyzing the document."
	}
	if n := it.SubCallCount(); n > 0 {
		return fmt.Sprintf("Called %d sub-LM(s) to analyze parts of the document.", n)
	}
	if n := len(it.CodeBlocks); n > 0 {
		return fmt.Sprintf("Wrote %d code block(s) to explore the document.", n)
	}
	return "Thinking about how to approach the question."
}
