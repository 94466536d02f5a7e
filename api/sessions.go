package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/rlmtrace/pkg/document"
	"github.com/papercomputeco/rlmtrace/pkg/ingest"
	"github.com/papercomputeco/rlmtrace/pkg/transport"
)

// defaultFileName labels documents posted without a name.
const defaultFileName = "document.txt"

// StartSessionRequest is the body of POST /v1/sessions.
type StartSessionRequest struct {
	// FileName labels the trace and selects the document format by its
	// extension.
	FileName string `json:"file_name"`

	transport.Request
}

// SessionResponse describes a session and its latest snapshot.
type SessionResponse struct {
	ID        string           `json:"id"`
	State     ingest.State     `json:"state"`
	FileName  string           `json:"file_name"`
	Question  string           `json:"question"`
	StartedAt time.Time        `json:"started_at"`
	Snapshot  *ingest.Snapshot `json:"snapshot,omitempty"`
	Error     string           `json:"error,omitempty"`
	TraceID   string           `json:"trace_id,omitempty"`
}

// OutcomeResponse is the final frame of a session stream.
type OutcomeResponse struct {
	State   ingest.State `json:"state"`
	Error   string       `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

func newOutcomeResponse(o ingest.Outcome) OutcomeResponse {
	out := OutcomeResponse{State: o.State}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	if o.Trace != nil {
		out.TraceID = o.Trace.ID
	}
	return out
}

func newSessionResponse(sub *ingest.Subscription, withSnapshot bool) SessionResponse {
	req := sub.Request()
	o, _ := sub.Outcome()
	outcome := newOutcomeResponse(o)

	resp := SessionResponse{
		ID:        sub.ID,
		State:     outcome.State,
		FileName:  req.FileName,
		Question:  req.Question,
		StartedAt: sub.StartedAt,
		Error:     outcome.Error,
		TraceID:   outcome.TraceID,
	}
	if withSnapshot {
		snap := sub.Snapshot()
		resp.Snapshot = &snap
	}
	return resp
}

// session returns the session named by the :id param, or nil when it is not
// the controller's current session.
func (s *Server) session(c *fiber.Ctx) *ingest.Subscription {
	sub := s.controller.Current()
	if sub == nil || sub.ID != c.Params("id") {
		return nil
	}
	return sub
}

// handleStartSession starts a run against the upstream producer.
func (s *Server) handleStartSession(c *fiber.Ctx) error {
	var body StartSessionRequest
	if err := c.BodyParser(&body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if body.FileName == "" {
		body.FileName = defaultFileName
	}
	doc, err := document.Parse(body.FileName, []byte(body.Document))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	req := body.Request.WithDefaults()
	req.FileName = doc.Name
	req.Document = doc.Text
	if err := req.Validate(); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	// The session outlives the request.
	sub, err := s.controller.Start(context.Background(), req)
	if errors.Is(err, ingest.ErrAlreadyRunning) {
		return errorJSON(c, fiber.StatusConflict, err.Error())
	}
	if err != nil {
		s.logger.Error("failed to start session", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to start session")
	}

	s.logger.Info("session started",
		"session", sub.ID,
		"file_name", req.FileName,
		"backend", req.Backend,
	)

	return c.Status(fiber.StatusAccepted).JSON(newSessionResponse(sub, false))
}

// handleGetSession returns the session's state and latest snapshot.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sub := s.session(c)
	if sub == nil {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}
	return c.JSON(newSessionResponse(sub, true))
}

// handleCancelSession cancels the session. Cancelling an ended session
// returns it unchanged.
func (s *Server) handleCancelSession(c *fiber.Ctx) error {
	sub := s.session(c)
	if sub == nil {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}
	sub.Cancel()
	return c.JSON(newSessionResponse(sub, false))
}

// handleStreamSession streams snapshots as server-sent events until the
// session ends, then sends one outcome event and closes.
func (s *Server) handleStreamSession(c *fiber.Ctx) error {
	sub := s.session(c)
	if sub == nil {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for {
			changed := sub.Changed()
			if err := writeEvent(w, "snapshot", sub.Snapshot()); err != nil {
				s.logger.Debug("session stream closed", "session", sub.ID, "error", err)
				return
			}

			select {
			case <-changed:
			case <-sub.Done():
				o, _ := sub.Outcome()
				if err := writeEvent(w, "snapshot", sub.Snapshot()); err != nil {
					return
				}
				_ = writeEvent(w, "outcome", newOutcomeResponse(o))
				return
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return w.Flush()
}
