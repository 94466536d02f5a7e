// Package normalize maps producer payloads onto the canonical rlm records.
//
// Producers emit the same logical records in two field-naming dialects:
// camelCase with flattened execution results, and snake_case with results
// nested under "result". Every canonical field declares the candidate
// locations it may be read from and a typed default, so that missing or
// renamed fields never surface as errors. Normalization is idempotent over
// the canonical JSON encoding of its own output.
package normalize

import (
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

var iterationFields = struct {
	index, timestamp, prompt, response, codeBlocks, finalAnswer, iterationTime field
}{
	index:         field{"iterationNumber", "iteration", "iteration_number"},
	timestamp:     field{"timestamp"},
	prompt:        field{"prompt"},
	response:      field{"response"},
	codeBlocks:    field{"codeBlocks", "code_blocks"},
	finalAnswer:   field{"finalAnswer", "final_answer"},
	iterationTime: field{"iterationTime", "iteration_time"},
}

var codeBlockFields = struct {
	code, stdout, stderr, locals, executionTime, subCalls field
}{
	code:          field{"code"},
	stdout:        field{"stdout", "result.stdout"},
	stderr:        field{"stderr", "result.stderr"},
	locals:        field{"locals", "result.locals"},
	executionTime: field{"executionTime", "execution_time", "result.executionTime", "result.execution_time"},
	subCalls:      field{"subLmCalls", "rlm_calls", "result.subLmCalls", "result.rlm_calls"},
}

var callFields = struct {
	rootModel, prompt, response, executionTime, usage, promptTokens, completionTokens field
}{
	rootModel:        field{"rootModel", "root_model"},
	prompt:           field{"prompt"},
	response:         field{"response"},
	executionTime:    field{"executionTime", "execution_time"},
	usage:            field{"usageSummary", "usage_summary"},
	promptTokens:     field{"promptTokens", "prompt_tokens"},
	completionTokens: field{"completionTokens", "completion_tokens"},
}

var usageFields = struct {
	summaries, totalCalls, inputTokens, outputTokens field
}{
	summaries:    field{"modelUsageSummaries", "model_usage_summaries"},
	totalCalls:   field{"totalCalls", "total_calls"},
	inputTokens:  field{"totalInputTokens", "total_input_tokens"},
	outputTokens: field{"totalOutputTokens", "total_output_tokens"},
}

var configFields = struct {
	rootModel, maxDepth, maxIterations, backend, backendKwargs, environmentType, environmentKwargs, otherBackends field
}{
	rootModel:         field{"rootModel", "root_model"},
	maxDepth:          field{"maxDepth", "max_depth"},
	maxIterations:     field{"maxIterations", "max_iterations"},
	backend:           field{"backend"},
	backendKwargs:     field{"backendKwargs", "backend_kwargs"},
	environmentType:   field{"environmentType", "environment_type"},
	environmentKwargs: field{"environmentKwargs", "environment_kwargs"},
	otherBackends:     field{"otherBackends", "other_backends"},
}

var tokenFields = struct {
	content, iteration field
}{
	content:   field{"content"},
	iteration: field{"iteration", "iterationNumber"},
}

var errorFields = field{"error", "message"}

// Iteration normalizes an iteration record.
func Iteration(m map[string]any) rlm.Iteration {
	f := iterationFields

	raw := f.codeBlocks.objects(m)
	blocks := make([]rlm.CodeBlock, 0, len(raw))
	for _, b := range raw {
		blocks = append(blocks, CodeBlock(b))
	}

	return rlm.Iteration{
		Index:         f.index.integer(m),
		Timestamp:     f.timestamp.str(m),
		Prompt:        f.prompt.raw(m),
		Response:      f.response.str(m),
		CodeBlocks:    blocks,
		FinalAnswer:   FinalAnswer(f.finalAnswer.raw(m)),
		IterationTime: f.iterationTime.float(m),
	}
}

// CodeBlock normalizes a code block in either the flattened or the nested
// result layout.
func CodeBlock(m map[string]any) rlm.CodeBlock {
	f := codeBlockFields

	raw := f.subCalls.objects(m)
	calls := make([]rlm.ChatCompletionCall, 0, len(raw))
	for _, c := range raw {
		calls = append(calls, Call(c))
	}

	return rlm.CodeBlock{
		Code: f.code.str(m),
		REPLResult: rlm.REPLResult{
			Stdout:        f.stdout.str(m),
			Stderr:        f.stderr.str(m),
			Locals:        f.locals.object(m),
			ExecutionTime: f.executionTime.float(m),
			SubLMCalls:    calls,
		},
	}
}

// Call normalizes a helper model call. Input and output token totals come
// from the nested usage summary when one is present, even an empty one, and
// from the flat prompt/completion fields only when it is absent.
func Call(m map[string]any) rlm.ChatCompletionCall {
	f := callFields

	call := rlm.ChatCompletionCall{
		RootModel:        f.rootModel.str(m),
		Prompt:           f.prompt.raw(m),
		Response:         f.response.str(m),
		ExecutionTime:    f.executionTime.float(m),
		PromptTokens:     f.promptTokens.integer(m),
		CompletionTokens: f.completionTokens.integer(m),
	}

	call.UsageSummary = Usage(m)
	if call.UsageSummary != nil {
		call.InputTokens, call.OutputTokens = call.UsageSummary.Totals()
	} else {
		call.InputTokens, call.OutputTokens = call.PromptTokens, call.CompletionTokens
	}
	return call
}

// Usage extracts the nested usage summary of a call, or nil when the call
// carries none.
func Usage(m map[string]any) *rlm.UsageSummary {
	v, ok := callFields.usage.lookup(m)
	if !ok {
		return nil
	}
	container, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	summaries := usageFields.summaries.object(container)
	out := &rlm.UsageSummary{ModelUsageSummaries: make(map[string]rlm.ModelUsage, len(summaries))}
	for model, raw := range summaries {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out.ModelUsageSummaries[model] = rlm.ModelUsage{
			TotalCalls:        usageFields.totalCalls.integer(obj),
			TotalInputTokens:  usageFields.inputTokens.integer(obj),
			TotalOutputTokens: usageFields.outputTokens.integer(obj),
		}
	}
	return out
}

// RunConfig normalizes a metadata record. Credential values in the kwargs
// are redacted.
func RunConfig(m map[string]any) rlm.RunConfig {
	f := configFields

	others := []string{}
	if arr, ok := f.otherBackends.raw(m).([]any); ok {
		for _, el := range arr {
			if el != nil {
				others = append(others, rlm.Stringify(el))
			}
		}
	}

	return rlm.RunConfig{
		RootModel:         f.rootModel.str(m),
		MaxDepth:          f.maxDepth.integer(m),
		MaxIterations:     f.maxIterations.integer(m),
		Backend:           f.backend.str(m),
		BackendKwargs:     rlm.RedactKwargs(f.backendKwargs.object(m)),
		EnvironmentType:   f.environmentType.str(m),
		EnvironmentKwargs: rlm.RedactKwargs(f.environmentKwargs.object(m)),
		OtherBackends:     others,
	}
}

// FinalAnswer normalizes a final answer value. Two-element arrays become
// tuple answers, strings become text answers, any other non-null value is
// rendered as JSON text.
func FinalAnswer(v any) *rlm.FinalAnswer {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return rlm.NewTextAnswer(val)
	case []any:
		if len(val) == 2 {
			return rlm.NewTupleAnswer(rlm.Stringify(val[0]), rlm.Stringify(val[1]))
		}
	}
	return rlm.NewTextAnswer(rlm.Stringify(v))
}

// Token returns the content and iteration hint of a token record.
func Token(m map[string]any) (content string, iteration int) {
	return tokenFields.content.str(m), tokenFields.iteration.integer(m)
}

// CodeResultIteration returns the iteration hint of a code_result record.
func CodeResultIteration(m map[string]any) int {
	return tokenFields.iteration.integer(m)
}

// ErrorMessage returns the message of an error record.
func ErrorMessage(m map[string]any) string {
	return errorFields.str(m)
}
