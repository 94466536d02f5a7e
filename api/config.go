// Package api provides an HTTP API server for running sessions and reading
// stored traces.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// DisableMCP serves an MCP endpoint with no tools.
	DisableMCP bool
}
