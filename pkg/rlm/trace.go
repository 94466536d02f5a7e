package rlm

import "time"

// Trace is the finalized, immutable record of a completed run.
type Trace struct {
	ID         string      `json:"id"`
	FileName   string      `json:"fileName"`
	Question   string      `json:"question,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	Iterations []Iteration `json:"iterations"`
	Metadata   LogMetadata `json:"metadata"`
	Config     RunConfig   `json:"config"`
}

// TraceSummary is a Trace without its iterations, for listings.
type TraceSummary struct {
	ID        string      `json:"id"`
	FileName  string      `json:"fileName"`
	Question  string      `json:"question,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	Metadata  LogMetadata `json:"metadata"`
}

// Summary returns the listing view of the trace.
func (t Trace) Summary() TraceSummary {
	return TraceSummary{
		ID:        t.ID,
		FileName:  t.FileName,
		Question:  t.Question,
		CreatedAt: t.CreatedAt,
		Metadata:  t.Metadata,
	}
}
