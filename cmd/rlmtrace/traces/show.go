package tracescmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/render"
	"github.com/papercomputeco/rlmtrace/pkg/cliui"
)

const showLongDesc string = `Show a stored trace: its answer, iterations and totals.

Examples:
  rlmtrace traces show 6f1c0c2e-0d4b-4f7e-9a53-1f1b0e8e4a11
  rlmtrace traces show 6f1c0c2e-0d4b-4f7e-9a53-1f1b0e8e4a11 --json`

const showShortDesc string = "Show a stored trace"

func newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, log, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer cmdutil.CloseStore(store, log)

			trace, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading trace: %w", err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(trace)
			}
			return render.Trace(w, *trace, cliui.Width(w))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the trace as JSON")
	cmdutil.AddStorageFlags(cmd)

	return cmd
}
