// Package document loads the text a run reasons over.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNoExtension is returned for file names without an extension.
	ErrNoExtension = errors.New("file has no extension")

	// ErrUnsupportedFormat is returned for extensions that cannot be parsed.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

var supported = []string{"txt", "md"}

// Document is parsed plain text and the format it was parsed from.
type Document struct {
	Name   string
	Format string
	Text   string
}

// SupportedExtensions returns the parseable extensions, without dots.
func SupportedExtensions() []string {
	return append([]string(nil), supported...)
}

// Parse decodes content according to the extension of filename. Text
// formats are decoded as UTF-8 with invalid sequences replaced by U+FFFD.
func Parse(filename string, content []byte) (Document, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return Document{}, fmt.Errorf("%w: %s (supported: %s)", ErrNoExtension, filename, list())
	}

	switch ext {
	case "txt", "md":
		text := string(content)
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, string(utf8.RuneError))
		}
		return Document{Name: filepath.Base(filename), Format: ext, Text: text}, nil
	}

	return Document{}, fmt.Errorf("%w: .%s (supported: %s)", ErrUnsupportedFormat, ext, list())
}

// ReadFile reads and parses the file at path.
func ReadFile(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading document: %w", err)
	}
	return Parse(path, content)
}

func list() string {
	exts := make([]string, len(supported))
	for i, e := range supported {
		exts[i] = "." + e
	}
	return strings.Join(exts, ", ")
}
