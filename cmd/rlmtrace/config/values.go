package configcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/rlmtrace/pkg/cliui"
	"github.com/papercomputeco/rlmtrace/pkg/config"
)

const notSet = "<not set>"

// entry is one resolved config key. An empty Value means the key is unset.
type entry struct {
	Key   string
	Value string
}

// lookup resolves keys against the config file in configDir, preserving
// the order of keys.
func lookup(configDir string, keys []string) (string, []entry, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return "", nil, fmt.Errorf("loading config: %w", err)
	}

	entries := make([]entry, 0, len(keys))
	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return "", nil, err
		}
		entries = append(entries, entry{Key: key, Value: value})
	}
	return cfger.GetTarget(), entries, nil
}

// writeEntries prints entries under the config file path, starting a new
// heading whenever the TOML section changes.
func writeEntries(w io.Writer, target string, entries []entry) error {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Key))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s %s\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))

	section := ""
	for _, e := range entries {
		if s, _, ok := strings.Cut(e.Key, "."); ok && s != section && len(entries) > 1 {
			section = s
			fmt.Fprintf(&b, "\n  %s\n", cliui.HeaderStyle.Render("["+s+"]"))
		}
		if e.Value == "" {
			fmt.Fprintf(&b, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, e.Key)), cliui.DimStyle.Render(notSet))
			continue
		}
		b.WriteString(cliui.KeyValue(e.Key, width, e.Value) + "\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// writeJSON prints entries as a flat object keyed by dotted key. Unset keys
// are null.
func writeJSON(w io.Writer, entries []entry) error {
	out := make(map[string]*string, len(entries))
	for _, e := range entries {
		if e.Value == "" {
			out[e.Key] = nil
			continue
		}
		out[e.Key] = &e.Value
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
