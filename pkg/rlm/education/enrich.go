package education

import "github.com/papercomputeco/rlmtrace/pkg/rlm"

// Enrichment bundles everything derived for one iteration.
type Enrichment struct {
	Phase           Phase        `json:"phase"`
	PhaseInfo       PhaseInfo    `json:"phaseInfo"`
	WhatHappened    string       `json:"whatHappened"`
	CodeAnnotations []Annotation `json:"codeAnnotations"`
}

// Enrich derives the phase, summary and code annotations of an iteration.
// Annotations of all code blocks are concatenated in block order.
func Enrich(it rlm.Iteration) Enrichment {
	phase := Classify(it)

	annotations := []Annotation{}
	for _, b := range it.CodeBlocks {
		annotations = append(annotations, Annotate(b.Code)...)
	}

	return Enrichment{
		Phase:           phase,
		PhaseInfo:       Info(phase),
		WhatHappened:    Summarize(it),
		CodeAnnotations: annotations,
	}
}
