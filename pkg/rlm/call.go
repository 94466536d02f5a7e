package rlm

// ChatCompletionCall is one invocation of a helper (sub-)model made from
// within executed code.
type ChatCompletionCall struct {
	RootModel string `json:"rootModel"`

	// Prompt is free text or a structured object.
	Prompt any `json:"prompt"`

	Response string `json:"response"`

	// ExecutionTime in seconds.
	ExecutionTime float64 `json:"executionTime"`

	// UsageSummary is the nested per-model usage. It is nil when the producer
	// only reported the flat legacy token fields.
	UsageSummary *UsageSummary `json:"usageSummary,omitempty"`

	// Legacy flat token fields, kept as reported.
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`

	// InputTokens and OutputTokens are the derived totals: from UsageSummary
	// when present, from the flat fields otherwise. Never both.
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// UsageSummary maps a model identifier to its usage counters.
type UsageSummary struct {
	ModelUsageSummaries map[string]ModelUsage `json:"modelUsageSummaries"`
}

// ModelUsage holds the usage counters for one model.
type ModelUsage struct {
	TotalCalls        int `json:"totalCalls"`
	TotalInputTokens  int `json:"totalInputTokens"`
	TotalOutputTokens int `json:"totalOutputTokens"`
}

// Totals sums input and output tokens across every model in the summary.
func (u UsageSummary) Totals() (input, output int) {
	for _, m := range u.ModelUsageSummaries {
		input += m.TotalInputTokens
		output += m.TotalOutputTokens
	}
	return input, output
}
