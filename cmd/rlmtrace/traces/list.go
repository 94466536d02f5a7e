package tracescmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/render"
	"github.com/papercomputeco/rlmtrace/pkg/cliui"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

const listLongDesc string = `List stored traces, newest first.

Examples:
  rlmtrace traces list
  rlmtrace traces list --file notes.md --limit 5
  rlmtrace traces list --json`

const listShortDesc string = "List stored traces"

type listCommander struct {
	fileName string
	limit    int
	offset   int
	asJSON   bool
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.limit <= 0 || cmder.offset < 0 {
				return fmt.Errorf("--limit must be positive and --offset must not be negative")
			}

			store, log, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer cmdutil.CloseStore(store, log)

			traces, err := store.List(cmd.Context(), storage.TraceQuery{
				FileName: cmder.fileName,
				Limit:    cmder.limit,
				Offset:   cmder.offset,
			})
			if err != nil {
				return fmt.Errorf("listing traces: %w", err)
			}
			return cmder.print(cmd.OutOrStdout(), traces)
		},
	}

	cmd.Flags().StringVarP(&cmder.fileName, "file", "f", "", "Only list traces of this document")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of traces to list")
	cmd.Flags().IntVar(&cmder.offset, "offset", 0, "Number of traces to skip")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print summaries as JSON")
	cmdutil.AddStorageFlags(cmd)

	return cmd
}

func (c *listCommander) print(w io.Writer, traces []*rlm.Trace) error {
	summaries := make([]rlm.TraceSummary, len(traces))
	for i, t := range traces {
		summaries[i] = t.Summary()
	}

	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("No traces found."))
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintln(w, render.SummaryLine(s))
	}
	return nil
}
