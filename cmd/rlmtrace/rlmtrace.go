// Package rlmtracecmder
package rlmtracecmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	configcmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace/config"
	replaycmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace/replay"
	runcmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace/run"
	servecmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace/serve"
	tracescmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace/traces"
	versioncmder "github.com/papercomputeco/rlmtrace/cmd/version"
)

const rlmtraceLongDesc string = `rlmtrace ingests live traces of recursive language model runs.

A run streams iterations, code executions and sub-calls from an RLM producer.
rlmtrace folds that stream into a trace you can watch, store and query:
  rlmtrace run        Run a question against a document and watch it live
  rlmtrace replay     Ingest a captured stream
  rlmtrace serve      Run the HTTP API
  rlmtrace traces     Inspect stored traces
  rlmtrace config     Manage persistent configuration`

const rlmtraceShortDesc string = "rlmtrace - live RLM trace ingestion"

func NewRLMTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rlmtrace",
		Short:         rlmtraceShortDesc,
		Long:          rlmtraceLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP(cmdutil.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool(cmdutil.FlagJSONLogs, false, "Write logs as JSON")
	cmd.PersistentFlags().String(cmdutil.FlagConfigDir, "", "Override path to the .rlmtrace/ config directory")

	// Add subcommands
	cmd.AddCommand(runcmder.NewRunCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(tracescmder.NewTracesCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
