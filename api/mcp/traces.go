package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

var (
	listTracesToolName    = "list_traces"
	listTracesDescription = "List recorded RLM traces, newest first. Each entry summarizes one completed run: the document it reasoned over, the question, the final answer, and iteration, code block and sub-call counts."

	getTraceToolName    = "get_trace"
	getTraceDescription = "Get one recorded RLM trace by ID, including every iteration's model response, executed code and REPL output."
)

const defaultListLimit = 20

// ListTracesInput represents the input arguments for the list_traces tool.
type ListTracesInput struct {
	FileName string `json:"file_name,omitempty" jsonschema:"only list traces of this document"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of traces to return (default: 20)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"number of traces to skip"`
}

// ListTracesOutput represents the output of the list_traces tool.
type ListTracesOutput struct {
	Traces []rlm.TraceSummary `json:"traces"`
	Count  int                `json:"count"`
}

// GetTraceInput represents the input arguments for the get_trace tool.
type GetTraceInput struct {
	ID string `json:"id" jsonschema:"the trace ID"`
}

// GetTraceOutput represents the output of the get_trace tool.
type GetTraceOutput struct {
	Trace rlm.Trace `json:"trace"`
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}

// handleListTraces processes a list_traces request.
func (s *Server) handleListTraces(ctx context.Context, _ *mcp.CallToolRequest, input ListTracesInput) (*mcp.CallToolResult, ListTracesOutput, error) {
	if input.Limit < 0 || input.Offset < 0 {
		return errorResult("limit and offset must not be negative"), ListTracesOutput{}, nil
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	s.config.Logger.Debug("MCP list_traces request",
		"file_name", input.FileName,
		"limit", limit,
		"offset", input.Offset,
	)

	traces, err := s.config.Store.List(ctx, storage.TraceQuery{
		FileName: input.FileName,
		Limit:    limit,
		Offset:   input.Offset,
	})
	if err != nil {
		s.config.Logger.Error("MCP list_traces failed", "error", err)
		return errorResult("Listing traces failed: %v", err), ListTracesOutput{}, nil
	}

	output := ListTracesOutput{
		Traces: make([]rlm.TraceSummary, len(traces)),
		Count:  len(traces),
	}
	for i, t := range traces {
		output.Traces[i] = t.Summary()
	}

	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), ListTracesOutput{}, nil
	}
	return result, output, nil
}

// handleGetTrace processes a get_trace request.
func (s *Server) handleGetTrace(ctx context.Context, _ *mcp.CallToolRequest, input GetTraceInput) (*mcp.CallToolResult, GetTraceOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), GetTraceOutput{}, nil
	}

	trace, err := s.config.Store.Get(ctx, input.ID)
	var notFound storage.NotFoundError
	if errors.As(err, &notFound) {
		return errorResult("No trace with ID %s", input.ID), GetTraceOutput{}, nil
	}
	if err != nil {
		s.config.Logger.Error("MCP get_trace failed", "id", input.ID, "error", err)
		return errorResult("Loading trace failed: %v", err), GetTraceOutput{}, nil
	}

	output := GetTraceOutput{Trace: *trace}
	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize trace: %v", err), GetTraceOutput{}, nil
	}
	return result, output, nil
}
