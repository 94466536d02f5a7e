package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/rlm/education"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

const (
	defaultTraceLimit = 50
	maxTraceLimit     = 500
)

// TraceListResponse is the body of GET /v1/traces.
type TraceListResponse struct {
	Count  int                `json:"count"`
	Traces []rlm.TraceSummary `json:"traces"`
}

// EnrichmentResponse pairs each iteration of a trace with its enrichment.
type EnrichmentResponse struct {
	TraceID    string                 `json:"trace_id"`
	Iterations []education.Enrichment `json:"iterations"`
}

// handleListTraces returns trace summaries, newest first.
func (s *Server) handleListTraces(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultTraceLimit)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || offset < 0 {
		return errorJSON(c, fiber.StatusBadRequest, "limit must be positive and offset must not be negative")
	}
	limit = min(limit, maxTraceLimit)

	traces, err := s.store.List(c.Context(), storage.TraceQuery{
		FileName: c.Query("file_name"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.logger.Error("failed to list traces", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to list traces")
	}

	resp := TraceListResponse{
		Count:  len(traces),
		Traces: make([]rlm.TraceSummary, len(traces)),
	}
	for i, t := range traces {
		resp.Traces[i] = t.Summary()
	}
	return c.JSON(resp)
}

func (s *Server) loadTrace(c *fiber.Ctx) (*rlm.Trace, error) {
	trace, err := s.store.Get(c.Context(), c.Params("id"))
	var notFound storage.NotFoundError
	if errors.As(err, &notFound) {
		return nil, errorJSON(c, fiber.StatusNotFound, "trace not found")
	}
	if err != nil {
		s.logger.Error("failed to get trace", "id", c.Params("id"), "error", err)
		return nil, errorJSON(c, fiber.StatusInternalServerError, "failed to get trace")
	}
	return trace, nil
}

// handleGetTrace returns a full trace.
func (s *Server) handleGetTrace(c *fiber.Ctx) error {
	trace, err := s.loadTrace(c)
	if trace == nil {
		return err
	}
	return c.JSON(trace)
}

// handleEnrichTrace returns the educational enrichment of every iteration.
func (s *Server) handleEnrichTrace(c *fiber.Ctx) error {
	trace, err := s.loadTrace(c)
	if trace == nil {
		return err
	}

	resp := EnrichmentResponse{
		TraceID:    trace.ID,
		Iterations: make([]education.Enrichment, len(trace.Iterations)),
	}
	for i, it := range trace.Iterations {
		resp.Iterations[i] = education.Enrich(it)
	}
	return c.JSON(resp)
}
