// Package tracescmder provides the traces command for inspecting stored
// traces.
package tracescmder

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

const tracesLongDesc string = `Inspect stored traces.

Traces are read from the configured store. When no storage backend is
configured the SQLite database in .rlmtrace/ is used.

Use subcommands to list, show, or export traces:
  rlmtrace traces list                 List traces, newest first
  rlmtrace traces show <id>            Show a trace
  rlmtrace traces export [id...]       Export traces as JSON or YAML`

const tracesShortDesc string = "Inspect stored traces"

func NewTracesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traces",
		Short: tracesShortDesc,
		Long:  tracesLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

// openStore opens the store the traces subcommands read from.
func openStore(ctx context.Context, cmd *cobra.Command) (storage.TraceStore, *slog.Logger, error) {
	v, err := cmdutil.Viper(cmd, cmdutil.StorageFlags...)
	if err != nil {
		return nil, nil, err
	}
	log := cmdutil.NewLogger(cmd)

	store, err := cmdutil.OpenPersistentStore(ctx, v, log)
	if err != nil {
		return nil, nil, err
	}
	return store, log, nil
}
