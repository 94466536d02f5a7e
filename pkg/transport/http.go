package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/utils"
)

// ProcessPath is the producer endpoint that starts a run and streams it.
const ProcessPath = "/api/process"

// maxErrorBody bounds how much of a rejected response is kept for the error.
const maxErrorBody = 4096

// HTTP starts runs on an upstream producer and streams their frames.
type HTTP struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	lookup  func(string) (string, bool)
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithHTTPClient sets the client used for upstream requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithLogger sets the transport logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) { h.logger = l }
}

// WithEnvLookup sets how backend API keys are looked up when a request
// carries none.
func WithEnvLookup(lookup func(string) (string, bool)) HTTPOption {
	return func(h *HTTP) { h.lookup = lookup }
}

// NewHTTP returns a transport for the producer at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client timeout: a run streams for as long as it reasons and is
		// bounded by the caller's context instead.
		client: &http.Client{},
		logger: logger.Nop(),
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open posts the request and returns the event stream body.
func (h *HTTP) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// A key found locally is forwarded; otherwise the producer resolves its own.
	if key, err := ResolveAPIKey(req.Backend, req.APIKey, h.lookup); err == nil {
		req.APIKey = key
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := h.baseURL + ProcessPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("User-Agent", utils.UserAgent())

	h.logger.Debug("starting upstream run",
		"url", url,
		"backend", req.Backend,
		"max_iterations", req.MaxIterations,
	)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "text/event-stream" {
			h.logger.Warn("upstream response is not an event stream", "content_type", ct)
		}
	}

	return resp.Body, nil
}
