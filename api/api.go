package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/rlmtrace/api/mcp"
	"github.com/papercomputeco/rlmtrace/pkg/ingest"
	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

// Server is the API server for running sessions and querying traces.
type Server struct {
	config     Config
	store      storage.TraceStore
	controller *ingest.Controller
	logger     *slog.Logger
	app        *fiber.App
}

// NewServer creates a new API server.
// The store and controller are injected to allow sharing with the CLI
// commands that run in the same process.
func NewServer(config Config, store storage.TraceStore, controller *ingest.Controller, log *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("trace store is required")
	}
	if controller == nil {
		return nil, errors.New("session controller is required")
	}
	log = logger.OrNop(log)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Store:  store,
		Noop:   config.DisableMCP,
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		store:      store,
		controller: controller,
		logger:     log,
		app:        app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/formats", s.handleFormats)

	app.Post("/v1/sessions", s.handleStartSession)
	app.Get("/v1/sessions/:id", s.handleGetSession)
	app.Get("/v1/sessions/:id/stream", s.handleStreamSession)
	app.Delete("/v1/sessions/:id", s.handleCancelSession)

	app.Get("/v1/traces", s.handleListTraces)
	app.Get("/v1/traces/:id", s.handleGetTrace)
	app.Get("/v1/traces/:id/enrichment", s.handleEnrichTrace)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
