// Package dotdir manages the .rlmtrace/ and ~/.rlmtrace directories, which
// hold config.toml and captured streams.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".rlmtrace"

	// HomeEnv names a directory used in place of ./.rlmtrace and ~/.rlmtrace.
	HomeEnv = "RLMTRACE_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the rlmtrace directory, creating it
// when missing. The first of these wins:
//  1. overrideDir
//  2. $RLMTRACE_HOME
//  3. ./.rlmtrace, when it exists
//  4. ~/.rlmtrace
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating rlmtrace directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// Sub returns the absolute path of a named subdirectory of Target, creating
// it when missing.
func (m *Manager) Sub(overrideDir, name string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s directory: %w", name, err)
	}
	return dir, nil
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if info, err := os.Stat(filepath.Join(cwd, dirName)); err == nil && info.IsDir() {
		return filepath.Join(cwd, dirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
