package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/rlmtrace/pkg/document"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleFormats lists the document extensions a session can be started from.
func (s *Server) handleFormats(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"extensions": document.SupportedExtensions(),
	})
}
