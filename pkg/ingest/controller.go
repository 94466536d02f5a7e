package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/papercomputeco/rlmtrace/pkg/event"
	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/sse"
	"github.com/papercomputeco/rlmtrace/pkg/transport"
)

const tracerName = "github.com/papercomputeco/rlmtrace/pkg/ingest"

// CaptureSink stores the raw bytes of a session's stream for later replay.
type CaptureSink interface {
	Create(sessionID string) (io.WriteCloser, error)
}

// Config configures a Controller.
type Config struct {
	// Transport opens the stream of each session. Required.
	Transport transport.Transport

	// Logger for diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger

	// Capture, when set, receives a verbatim copy of every stream.
	Capture CaptureSink

	// OnComplete is called with the trace of every completed session, from
	// the session's reader goroutine and outside the controller lock.
	OnComplete func(rlm.Trace)

	// TracerProvider for session spans. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Controller runs one session at a time through the state machine
// Idle -> Running -> {Completed, Cancelled, Failed}. A new session may be
// started from Idle or any terminal state.
type Controller struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer

	mu    sync.Mutex
	state State
	sub   *Subscription
}

// NewController returns an idle controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Controller{
		cfg:    cfg,
		logger: logger.OrNop(cfg.Logger),
		tracer: tp.Tracer(tracerName),
		state:  StateIdle,
	}, nil
}

// State returns the state of the current session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the current or last session, or nil before the first Start.
func (c *Controller) Current() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

// Start begins a new session. The session runs until the stream completes,
// fails, is cancelled, or ctx is done. Start returns ErrAlreadyRunning while
// another session is running.
func (c *Controller) Start(ctx context.Context, req transport.Request) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return nil, ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(uuid.NewString(), req, c, cancel, c.cfg.Now())
	c.sub = sub
	c.setState(sub, StateRunning)

	go c.run(runCtx, sub)
	return sub, nil
}

// Cancel stops the running session, if any. It is idempotent.
func (c *Controller) Cancel() {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()

	if sub != nil {
		c.cancelSession(sub)
	}
}

func (c *Controller) cancelSession(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != sub || c.state != StateRunning {
		return
	}
	c.cancelLocked(sub)
}

// cancelLocked ends sub as cancelled: in-flight and finalized state is
// discarded and no trace is produced.
func (c *Controller) cancelLocked(sub *Subscription) {
	sub.acc.Discard()
	sub.publish(sub.acc.Snapshot())
	c.setState(sub, StateCancelled)
	sub.settle(Outcome{State: StateCancelled})
}

func (c *Controller) setState(sub *Subscription, s State) {
	c.logger.Info("session state changed",
		"session", sub.ID,
		"from", c.state.String(),
		"to", s.String(),
	)
	c.state = s
}

func (c *Controller) run(ctx context.Context, sub *Subscription) {
	ctx, span := c.tracer.Start(ctx, "ingest.session", trace.WithAttributes(
		attribute.String("rlmtrace.session_id", sub.ID),
		attribute.String("rlmtrace.file_name", sub.req.FileName),
		attribute.String("rlmtrace.backend", sub.req.Backend),
	))
	defer func() {
		c.endSpan(span, sub)
		span.End()
	}()

	body, err := c.cfg.Transport.Open(ctx, sub.req)
	if err != nil {
		c.fail(ctx, sub, fmt.Errorf("opening stream: %w", err))
		return
	}
	defer body.Close()

	// Closing the body unblocks a pending read once the session is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	var capture io.Writer
	if c.cfg.Capture != nil {
		w, err := c.cfg.Capture.Create(sub.ID)
		if err != nil {
			c.logger.Warn("stream capture disabled", "session", sub.ID, "error", err)
		} else {
			defer w.Close()
			capture = &captureWriter{w: w, logger: c.logger, session: sub.ID}
		}
	}

	reader := sse.NewReader(body, capture)
	for {
		frame, err := reader.Next()
		if err != nil {
			c.fail(ctx, sub, fmt.Errorf("reading stream: %w", err))
			return
		}
		if frame == nil {
			c.logger.Debug("stream ended",
				"session", sub.ID,
				"skipped_frames", reader.Skipped(),
				"truncated_bytes", reader.Truncated(),
			)
			c.fail(ctx, sub, ErrTruncatedStream)
			return
		}

		ev, err := event.Decode(frame.Data)
		switch {
		case errors.Is(err, event.ErrUnknownType):
			c.logger.Debug("ignoring unknown event", "session", sub.ID, "error", err)
			continue
		case err != nil:
			c.logger.Warn("skipping malformed frame", "session", sub.ID, "error", err)
			continue
		}

		if it, ok := ev.(event.Iteration); ok {
			span.AddEvent("iteration", trace.WithAttributes(
				attribute.Int("rlmtrace.iteration", it.Iteration.Index),
				attribute.Int("rlmtrace.code_blocks", len(it.Iteration.CodeBlocks)),
			))
		}

		cont, completed := c.apply(sub, ev)
		if completed != nil && c.cfg.OnComplete != nil {
			c.cfg.OnComplete(*completed)
		}
		if !cont {
			return
		}
	}
}

// apply folds one event into the session as a single step. It reports
// whether the reader should continue, and the trace when the event completed
// the session.
func (c *Controller) apply(sub *Subscription, ev event.Event) (bool, *rlm.Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != sub || c.state != StateRunning {
		return false, nil
	}

	switch e := ev.(type) {
	case event.Complete:
		t := sub.acc.Trace(sub.ID, sub.req.FileName, sub.req.Question, c.cfg.Now())
		sub.publish(sub.acc.Snapshot())
		c.setState(sub, StateCompleted)
		sub.settle(Outcome{State: StateCompleted, Trace: &t})
		return false, &t

	case event.Error:
		c.failLocked(sub, &ProducerError{Message: e.Message})
		return false, nil

	default:
		sub.acc.Apply(ev)
		sub.publish(sub.acc.Snapshot())
		return true, nil
	}
}

// fail ends sub as failed, or as cancelled when its context was cancelled.
func (c *Controller) fail(ctx context.Context, sub *Subscription, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != sub || c.state != StateRunning {
		return
	}
	if ctx.Err() != nil {
		c.cancelLocked(sub)
		return
	}
	c.failLocked(sub, err)
}

func (c *Controller) failLocked(sub *Subscription, err error) {
	c.logger.Error("session failed", "session", sub.ID, "error", err)
	c.setState(sub, StateFailed)
	sub.settle(Outcome{State: StateFailed, Err: err})
}

func (c *Controller) endSpan(span trace.Span, sub *Subscription) {
	o, ok := sub.Outcome()
	if !ok {
		return
	}

	span.SetAttributes(attribute.String("rlmtrace.outcome", o.State.String()))
	switch o.State {
	case StateFailed:
		span.RecordError(o.Err)
		span.SetStatus(codes.Error, o.Err.Error())
	case StateCompleted:
		span.SetAttributes(attribute.Int("rlmtrace.iterations", o.Trace.Metadata.TotalIterations))
		span.SetStatus(codes.Ok, "")
	}
}

// captureWriter copies the stream to a capture sink. A failing sink is
// dropped rather than failing the session.
type captureWriter struct {
	w       io.Writer
	logger  *slog.Logger
	session string
	failed  bool
}

func (cw *captureWriter) Write(p []byte) (int, error) {
	if cw.failed {
		return len(p), nil
	}
	if _, err := cw.w.Write(p); err != nil {
		cw.failed = true
		cw.logger.Warn("stream capture failed", "session", cw.session, "error", err)
	}
	return len(p), nil
}
