package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rlmtrace/pkg/config"
)

const getLongDesc string = `Get one or more configuration values.

Keys use dotted notation matching the TOML section structure. Keys without
a value in config.toml are shown as <not set>.

Examples:
  rlmtrace config get upstream.url
  rlmtrace config get storage.redis_url storage.redis_prefix
  rlmtrace config get capture.dir --json`

const getShortDesc string = "Get configuration values"

func newGetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <key>...",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), configDir, args, asJSON)
		},
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print values as a JSON object")

	return cmd
}

func runGet(w io.Writer, configDir string, keys []string, asJSON bool) error {
	for _, key := range keys {
		if !config.IsValidConfigKey(key) {
			return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
				key, strings.Join(config.ValidConfigKeys(), ", "))
		}
	}

	target, entries, err := lookup(configDir, keys)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, entries)
	}
	return writeEntries(w, target, entries)
}
