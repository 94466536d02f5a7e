// Package configcmder provides the config command for managing persistent
// rlmtrace configuration stored in the .rlmtrace/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent rlmtrace configuration.

Configuration is stored as config.toml in the .rlmtrace/ directory and provides
default values for command flags. CLI flags and RLMTRACE_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  upstream.url, upstream.backend, upstream.max_iterations,
  api.listen,
  storage.sqlite_path, storage.postgres_dsn, storage.libsql_url,
  storage.redis_url, storage.redis_prefix,
  eventstream.kafka_brokers, eventstream.kafka_topic,
  capture.enabled, capture.dir

Use subcommands to get, set, or list configuration values:
  rlmtrace config set <key> <value>    Set a configuration value
  rlmtrace config get <key>            Get a configuration value
  rlmtrace config list                 List all configuration values

Examples:
  rlmtrace config set upstream.url http://localhost:8000
  rlmtrace config set storage.sqlite_path ~/.rlmtrace/rlmtrace.db
  rlmtrace config get upstream.backend
  rlmtrace config list`

const configShortDesc string = "Manage persistent rlmtrace configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
