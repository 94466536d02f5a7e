package normalize_test

import (
	"encoding/json"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/rlm/normalize"
)

func decode(s string) map[string]any {
	var m map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(s), &m)).To(Succeed())
	return m
}

// roundTrip encodes a canonical iteration and decodes it back to a raw object.
func roundTrip(it rlm.Iteration) map[string]any {
	b, err := json.Marshal(it)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return decode(string(b))
}

const snakeIteration = `{
	"type": "iteration",
	"iteration": 2,
	"timestamp": "2025-01-01T00:00:00",
	"prompt": [{"role": "user", "content": "q"}],
	"response": "let me chunk it",
	"code_blocks": [{
		"code": "x = llm_query(chunk)",
		"result": {
			"stdout": "ok",
			"stderr": "",
			"locals": {"x": "1"},
			"execution_time": 0.5,
			"rlm_calls": [{
				"root_model": "m",
				"prompt": "p",
				"response": "r",
				"execution_time": 0.25,
				"prompt_tokens": 7,
				"completion_tokens": 3
			}]
		}
	}],
	"final_answer": ["notes", "42"],
	"iteration_time": 1.5
}`

const camelIteration = `{
	"type": "iteration",
	"iterationNumber": 2,
	"timestamp": "2025-01-01T00:00:00",
	"prompt": [{"role": "user", "content": "q"}],
	"response": "let me chunk it",
	"codeBlocks": [{
		"code": "x = llm_query(chunk)",
		"stdout": "ok",
		"stderr": "",
		"locals": {"x": "1"},
		"executionTime": 0.5,
		"subLmCalls": [{
			"rootModel": "m",
			"prompt": "p",
			"response": "r",
			"executionTime": 0.25,
			"promptTokens": 7,
			"completionTokens": 3
		}]
	}],
	"finalAnswer": ["notes", "42"],
	"iterationTime": 1.5,
	"education": {"phase": "answering"}
}`

var _ = Describe("Iteration", func() {
	It("reads the snake_case dialect with nested results", func() {
		it := normalize.Iteration(decode(snakeIteration))

		Expect(it.Index).To(Equal(2))
		Expect(it.Response).To(Equal("let me chunk it"))
		Expect(it.IterationTime).To(Equal(1.5))
		Expect(it.CodeBlocks).To(HaveLen(1))

		block := it.CodeBlocks[0]
		Expect(block.Stdout).To(Equal("ok"))
		Expect(block.ExecutionTime).To(Equal(0.5))
		Expect(block.Locals).To(HaveKeyWithValue("x", "1"))
		Expect(block.SubLMCalls).To(HaveLen(1))
		Expect(block.SubLMCalls[0].InputTokens).To(Equal(7))
		Expect(block.SubLMCalls[0].OutputTokens).To(Equal(3))

		Expect(it.FinalAnswer).NotTo(BeNil())
		Expect(it.FinalAnswer.Tuple).To(BeTrue())
		Expect(it.FinalAnswer.Display()).To(Equal("42"))
	})

	It("produces identical records for both dialects", func() {
		Expect(normalize.Iteration(decode(camelIteration))).
			To(Equal(normalize.Iteration(decode(snakeIteration))))
	})

	It("is idempotent over its canonical encoding", func() {
		for _, payload := range []string{snakeIteration, camelIteration, `{}`} {
			once := normalize.Iteration(decode(payload))
			Expect(normalize.Iteration(roundTrip(once))).To(Equal(once))
		}
	})

	It("substitutes defaults for missing and null fields", func() {
		it := normalize.Iteration(decode(`{"iteration": null, "code_blocks": [{"result": null}], "final_answer": null}`))

		Expect(it.Index).To(Equal(0))
		Expect(it.Prompt).To(BeNil())
		Expect(it.FinalAnswer).To(BeNil())
		Expect(it.CodeBlocks).To(HaveLen(1))
		Expect(it.CodeBlocks[0].Locals).NotTo(BeNil())
		Expect(it.CodeBlocks[0].SubLMCalls).NotTo(BeNil())
		Expect(it.CodeBlocks[0].Stdout).To(BeEmpty())
	})

	It("coerces numeric strings", func() {
		it := normalize.Iteration(decode(`{"iteration": "3", "iteration_time": "0.75"}`))
		Expect(it.Index).To(Equal(3))
		Expect(it.IterationTime).To(Equal(0.75))
	})

	DescribeTable("defaults numbers that are not finite or do not fit",
		func(value string) {
			it := normalize.Iteration(decode(`{
				"iteration": "` + value + `",
				"iteration_time": "` + value + `",
				"code_blocks": [{"code": "x", "execution_time": "` + value + `"}]
			}`))

			Expect(it.Index).To(Equal(0))
			Expect(it.IterationTime).To(BeZero())
			Expect(it.CodeBlocks[0].ExecutionTime).To(BeZero())

			its := []rlm.Iteration{it}
			Expect(rlm.Aggregate(its)).To(Equal(rlm.Aggregate(its)))
			_, err := json.Marshal(rlm.Trace{ID: "t", Iterations: its, Metadata: rlm.Aggregate(its)})
			Expect(err).NotTo(HaveOccurred())
		},
		Entry("NaN", "NaN"),
		Entry("positive infinity", "Inf"),
		Entry("negative infinity", "-Infinity"),
	)

	It("defaults an index beyond the int range but keeps a finite time", func() {
		it := normalize.Iteration(decode(`{"iteration": "1e30", "iteration_time": "1e30"}`))
		Expect(it.Index).To(Equal(0))
		Expect(it.IterationTime).To(Equal(1e30))
	})

	It("accepts both dialects for every generated iteration", func() {
		parameters := gopter.DefaultTestParameters()
		parameters.MinSuccessfulTests = 100
		properties := gopter.NewProperties(parameters)

		properties.Property("dialects normalize identically and idempotently", prop.ForAll(
			func(index int, response, stdout, answer string, iterTime, execTime float64, tokens int) bool {
				snake := map[string]any{
					"iteration":      index,
					"response":       response,
					"iteration_time": iterTime,
					"final_answer":   answer,
					"code_blocks": []any{map[string]any{
						"code": "print(1)",
						"result": map[string]any{
							"stdout":         stdout,
							"execution_time": execTime,
							"rlm_calls": []any{map[string]any{
								"prompt_tokens":     tokens,
								"completion_tokens": tokens / 2,
							}},
						},
					}},
				}
				camel := map[string]any{
					"iterationNumber": index,
					"response":        response,
					"iterationTime":   iterTime,
					"finalAnswer":     answer,
					"codeBlocks": []any{map[string]any{
						"code":          "print(1)",
						"stdout":        stdout,
						"executionTime": execTime,
						"subLmCalls": []any{map[string]any{
							"promptTokens":     tokens,
							"completionTokens": tokens / 2,
						}},
					}},
				}

				a := normalize.Iteration(snake)
				b := normalize.Iteration(camel)
				raw, err := json.Marshal(a)
				if err != nil {
					return false
				}
				var again map[string]any
				if err := json.Unmarshal(raw, &again); err != nil {
					return false
				}
				return equalJSON(a, b) && equalJSON(a, normalize.Iteration(again))
			},
			gen.IntRange(0, 1000),
			gen.AlphaString(),
			gen.AlphaString(),
			gen.AlphaString(),
			gen.Float64Range(0, 100),
			gen.Float64Range(0, 100),
			gen.IntRange(0, 100000),
		))

		Expect(properties.Run(gopter.ConsoleReporter(false))).To(BeTrue())
	})
})

func equalJSON(a, b rlm.Iteration) bool {
	x, err := json.Marshal(a)
	if err != nil {
		return false
	}
	y, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(x) == string(y)
}

var _ = Describe("Call", func() {
	It("uses only the nested usage summary when both shapes are present", func() {
		call := normalize.Call(decode(`{
			"prompt_tokens": 1000,
			"completion_tokens": 1000,
			"usage_summary": {"model_usage_summaries": {
				"a": {"total_calls": 1, "total_input_tokens": 12, "total_output_tokens": 5},
				"b": {"totalCalls": 1, "totalInputTokens": 8, "totalOutputTokens": 1}
			}}
		}`))

		Expect(call.UsageSummary).NotTo(BeNil())
		Expect(call.InputTokens).To(Equal(20))
		Expect(call.OutputTokens).To(Equal(6))
		Expect(call.PromptTokens).To(Equal(1000))
	})

	It("treats an empty usage summary as present", func() {
		call := normalize.Call(decode(`{"promptTokens": 9, "completionTokens": 4, "usageSummary": {"modelUsageSummaries": {}}}`))
		Expect(call.UsageSummary).NotTo(BeNil())
		Expect(call.InputTokens).To(Equal(0))
		Expect(call.OutputTokens).To(Equal(0))
	})

	It("falls back to the flat fields without a summary", func() {
		call := normalize.Call(decode(`{"prompt_tokens": 9, "completion_tokens": 4, "usage_summary": null}`))
		Expect(call.UsageSummary).To(BeNil())
		Expect(call.InputTokens).To(Equal(9))
		Expect(call.OutputTokens).To(Equal(4))
	})

	It("is idempotent with a usage summary", func() {
		once := normalize.Call(decode(`{"root_model": "m", "usage_summary": {"model_usage_summaries": {"m": {"total_input_tokens": 3}}}}`))
		b, err := json.Marshal(once)
		Expect(err).NotTo(HaveOccurred())
		Expect(normalize.Call(decode(string(b)))).To(Equal(once))
	})
})

var _ = Describe("FinalAnswer", func() {
	It("keeps plain strings", func() {
		Expect(normalize.FinalAnswer("42")).To(Equal(rlm.NewTextAnswer("42")))
	})

	It("unwraps two-element tuples", func() {
		a := normalize.FinalAnswer([]any{"notes", float64(42)})
		Expect(a.Tuple).To(BeTrue())
		Expect(a.Context).To(Equal("notes"))
		Expect(a.Display()).To(Equal("42"))
	})

	It("renders other shapes as JSON", func() {
		Expect(normalize.FinalAnswer([]any{"a", "b", "c"}).Display()).To(Equal(`["a","b","c"]`))
	})

	It("returns nil for null", func() {
		Expect(normalize.FinalAnswer(nil)).To(BeNil())
	})
})

var _ = Describe("RunConfig", func() {
	It("reads both dialects and redacts credentials", func() {
		snake := normalize.RunConfig(decode(`{
			"root_model": "gpt", "max_depth": 1, "max_iterations": 10, "backend": "openai",
			"backend_kwargs": {"api_key": "sk-secret", "model_name": "gpt"},
			"environment_type": "local", "other_backends": ["a", null, "b"]
		}`))
		camel := normalize.RunConfig(decode(`{
			"rootModel": "gpt", "maxDepth": 1, "maxIterations": 10, "backend": "openai",
			"backendKwargs": {"apiKey": "sk-secret", "model_name": "gpt"},
			"environmentType": "local", "otherBackends": ["a", "b"]
		}`))

		Expect(snake.BackendKwargs).To(HaveKeyWithValue("api_key", rlm.Redacted))
		Expect(snake.BackendKwargs).To(HaveKeyWithValue("model_name", "gpt"))
		Expect(camel.BackendKwargs).To(HaveKeyWithValue("apiKey", rlm.Redacted))
		Expect(snake.OtherBackends).To(Equal([]string{"a", "b"}))
		Expect(snake.MaxIterations).To(Equal(camel.MaxIterations))
		Expect(snake.EnvironmentKwargs).To(BeEmpty())
	})
})
