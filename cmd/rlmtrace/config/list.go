package configcmder

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rlmtrace/pkg/config"
)

const listLongDesc string = `List every configuration key and its value.

Keys are grouped by TOML section in the order they appear in config.toml.
Values not set in the file show their defaults, and keys with no default
are shown as <not set>.

Examples:
  rlmtrace config list
  rlmtrace config list --json`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print values as a JSON object")

	return cmd
}

func runList(w io.Writer, configDir string, asJSON bool) error {
	target, entries, err := lookup(configDir, config.ValidConfigKeys())
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, entries)
	}
	return writeEntries(w, target, entries)
}
