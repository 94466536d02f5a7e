// Package sqlitepath locates an existing rlmtrace SQLite database for
// commands that read stored traces.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFile is the database file name commands create under .rlmtrace/.
const DefaultFile = "rlmtrace.db"

// ErrNotFound is returned when no database could be located.
var ErrNotFound = errors.New("could not find rlmtrace SQLite database; pass --sqlite")

func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("RLMTRACE_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

func sqliteCandidates() []string {
	candidates := []string{
		DefaultFile,
		filepath.Join(".rlmtrace", DefaultFile),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".rlmtrace", DefaultFile),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "rlmtrace", DefaultFile),
		}, candidates...)
	}

	return candidates
}
