package education

import (
	"regexp"
	"strings"
)

// Importance ranks how central an annotated idiom is.
type Importance string

const (
	ImportanceKey     Importance = "key"
	ImportanceContext Importance = "context"
	ImportanceDetail  Importance = "detail"
)

// Annotation explains one line of code. Line is 1-based.
type Annotation struct {
	Line        int        `json:"line"`
	Explanation string     `json:"explanation"`
	Importance  Importance `json:"importance"`
}

type pattern struct {
	re          *regexp.Regexp
	explanation string
	importance  Importance
}

// Patterns are tried in order; the first match on a line wins.
var patterns = []pattern{
	{
		re:          regexp.MustCompile(`context\[.*\]|context\[:|\bcontext\b`),
		explanation: "Reads the document, which is exposed to the code as a variable that can be sliced and inspected.",
		importance:  ImportanceKey,
	},
	{
		re:          regexp.MustCompile(`llm_query\(`),
		explanation: "Calls a helper model recursively, delegating part of the analysis.",
		importance:  ImportanceKey,
	},
	{
		re:          regexp.MustCompile(`llm_query_batched\(`),
		explanation: "Calls several helper models in parallel over multiple chunks.",
		importance:  ImportanceKey,
	},
	{
		re:          regexp.MustCompile(`for .* in .*chunk|for .* in .*section`),
		explanation: "Iterates over chunks of the document.",
		importance:  ImportanceContext,
	},
	{
		re:          regexp.MustCompile(`buffer.*=|buffers\.append|answers\.append`),
		explanation: "Accumulates findings across iterations.",
		importance:  ImportanceContext,
	},
	{
		re:          regexp.MustCompile(`print\(`),
		explanation: "Prints to the REPL; the output is visible to the next iteration.",
		importance:  ImportanceDetail,
	},
	{
		re:          regexp.MustCompile(`len\(context\)|len\(`),
		explanation: "Measures the size of data, usually to decide how to chunk it.",
		importance:  ImportanceDetail,
	},
	{
		re:          regexp.MustCompile(`FINAL\(|FINAL_VAR\(`),
		explanation: "Signals the final answer.",
		importance:  ImportanceKey,
	},
}

// Annotate returns at most one annotation per line of code, in line order.
func Annotate(code string) []Annotation {
	var out []Annotation
	for i, line := range strings.Split(code, "\n") {
		for _, p := range patterns {
			if p.re.MatchString(line) {
				out = append(out, Annotation{Line: i + 1, Explanation: p.explanation, Importance: p.importance})
				break
			}
		}
	}
	return out
}

// KeyAnnotations returns only the annotations of key importance.
func KeyAnnotations(code string) []Annotation {
	var out []Annotation
	for _, a := range Annotate(code) {
		if a.Importance == ImportanceKey {
			out = append(out, a)
		}
	}
	return out
}
