// Package capture stores raw session streams on disk so they can be replayed,
// and watches the capture directory for new streams.
package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the file extension of capture files.
const Ext = ".sse"

// Dir stores one capture file per session in a directory.
type Dir struct {
	path string
}

// NewDir returns a capture store rooted at path, creating it if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating capture dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory the captures are stored in.
func (d *Dir) Path() string {
	return d.path
}

// File returns the capture file path of a session.
func (d *Dir) File(sessionID string) string {
	return filepath.Join(d.path, sessionID+Ext)
}

// Create opens a new capture file for a session.
func (d *Dir) Create(sessionID string) (io.WriteCloser, error) {
	f, err := os.OpenFile(d.File(sessionID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating capture: %w", err)
	}
	return f, nil
}

// List returns the capture files in the directory, sorted by name.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("listing captures: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() && IsCapture(e.Name()) {
			out = append(out, filepath.Join(d.path, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// IsCapture reports whether name is a capture file name.
func IsCapture(name string) bool {
	return strings.HasSuffix(name, Ext)
}
