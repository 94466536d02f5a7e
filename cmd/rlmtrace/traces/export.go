package tracescmder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

const exportLongDesc string = `Export stored traces as JSON or YAML.

With no IDs every trace is exported, newest first. Both formats use the
canonical camelCase field names.

Examples:
  rlmtrace traces export > traces.json
  rlmtrace traces export 6f1c0c2e --format yaml
  rlmtrace traces export --file notes.md --output notes-traces.yaml --format yaml`

const exportShortDesc string = "Export stored traces"

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type exportCommander struct {
	format   string
	output   string
	fileName string
}

func newExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmder.format != formatJSON && cmder.format != formatYAML {
				return fmt.Errorf("unsupported format %q (available: json, yaml)", cmder.format)
			}

			store, log, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer cmdutil.CloseStore(store, log)

			traces, err := cmder.load(cmd, store, args)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if cmder.output != "" {
				f, err := os.Create(cmder.output)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return cmder.write(w, traces)
		},
	}

	cmd.Flags().StringVar(&cmder.format, "format", formatJSON, "Output format (json, yaml)")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVarP(&cmder.fileName, "file", "f", "", "Only export traces of this document")
	cmdutil.AddStorageFlags(cmd)

	return cmd
}

func (c *exportCommander) load(cmd *cobra.Command, store storage.TraceStore, ids []string) ([]*rlm.Trace, error) {
	if len(ids) == 0 {
		traces, err := store.List(cmd.Context(), storage.TraceQuery{FileName: c.fileName})
		if err != nil {
			return nil, fmt.Errorf("listing traces: %w", err)
		}
		return traces, nil
	}

	traces := make([]*rlm.Trace, 0, len(ids))
	for _, id := range ids {
		t, err := store.Get(cmd.Context(), id)
		if err != nil {
			return nil, fmt.Errorf("loading trace %s: %w", id, err)
		}
		traces = append(traces, t)
	}
	return traces, nil
}

func (c *exportCommander) write(w io.Writer, traces []*rlm.Trace) error {
	if c.format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(traces)
	}

	out, err := toYAML(traces)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// toYAML encodes v as block-style YAML with its JSON field names and order.
func toYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding traces: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("converting traces: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encoding traces: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blockStyle clears the flow and quoting styles JSON input leaves on nodes.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
