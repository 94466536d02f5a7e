// Package runcmder provides the run command, which starts a session against
// the upstream producer and follows it live.
package runcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/render"
	"github.com/papercomputeco/rlmtrace/pkg/cliui"
	"github.com/papercomputeco/rlmtrace/pkg/config"
	"github.com/papercomputeco/rlmtrace/pkg/document"
	"github.com/papercomputeco/rlmtrace/pkg/ingest"
	"github.com/papercomputeco/rlmtrace/pkg/transport"
)

const runLongDesc string = `Run a question against a document and watch the trace live.

The document is sent to the RLM producer at upstream.url, which streams
iterations back as it reasons. Each finalized iteration is printed as it
arrives; the final answer and a summary are printed when the run completes.
Press Ctrl-C to cancel the run.

Supported document formats: .txt, .md

Examples:
  rlmtrace run notes.md -q "What were the action items?"
  rlmtrace run report.txt -q "Summarize the findings" --backend openai
  rlmtrace run notes.md -q "Who attended?" --json > trace.json`

const runShortDesc string = "Run a question against a document"

type runCommander struct {
	question      string
	apiKey        string
	asJSON        bool
	upstream      string
	backend       string
	maxIterations uint

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

var runFlags = []string{
	config.FlagUpstream,
	config.FlagBackend,
	config.FlagMaxIterations,
	config.FlagCaptureDir,
}

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{}

	cmd := &cobra.Command{
		Use:   "run <document>",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := cmdutil.Viper(cmd, append(runFlags, cmdutil.StorageFlags...)...)
			if err != nil {
				return err
			}
			cmder.stdout = cmd.OutOrStdout()
			cmder.stderr = cmd.ErrOrStderr()
			cmder.logger = cmdutil.NewLogger(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, cmd, v, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.question, "question", "q", "", "Question to answer about the document")
	cmd.Flags().StringVar(&cmder.apiKey, "api-key", "", "API key for the backend (default: from the backend's environment variable)")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the completed trace as JSON instead of a summary")
	_ = cmd.MarkFlagRequired("question")

	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagBackend, &cmder.backend)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxIterations, &cmder.maxIterations)
	config.AddStringFlag(cmd, config.Flags, config.FlagCaptureDir, new(string))
	cmdutil.AddStorageFlags(cmd)

	return cmd
}

func (c *runCommander) run(ctx context.Context, cmd *cobra.Command, v *viper.Viper, path string) error {
	doc, err := document.ReadFile(path)
	if err != nil {
		return err
	}

	req := transport.Request{
		FileName:      doc.Name,
		Document:      doc.Text,
		Question:      c.question,
		MaxIterations: v.GetInt("upstream.max_iterations"),
		Backend:       v.GetString("upstream.backend"),
		APIKey:        c.apiKey,
	}.WithDefaults()
	if err := req.Validate(); err != nil {
		return err
	}

	sink, err := cmdutil.OpenSink(ctx, v, c.logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	controllerCfg := ingest.Config{
		Transport: transport.NewHTTP(v.GetString("upstream.url"),
			transport.WithLogger(c.logger),
		),
		Logger:     c.logger,
		OnComplete: sink.OnComplete,
	}
	captures, err := cmdutil.CaptureDir(cmd, v)
	if err != nil {
		return err
	}
	if captures != nil {
		controllerCfg.Capture = captures
	}

	controller, err := ingest.NewController(controllerCfg)
	if err != nil {
		return err
	}

	// The session outlives ctx so a cancelled run still settles as cancelled.
	sub, err := controller.Start(context.WithoutCancel(ctx), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stderr, "\n  %s %s %s\n\n",
		cliui.HeaderStyle.Render("rlmtrace"),
		cliui.ValueStyle.Render(doc.Name),
		cliui.DimStyle.Render(fmt.Sprintf("(%s, up to %d iterations)", req.Backend, req.MaxIterations)),
	)

	progress := render.NewProgress(c.stderr, cliui.IsTerminal(c.stderr))
	outcome := render.Follow(ctx, sub, progress)

	return c.report(sub, outcome)
}

func (c *runCommander) report(sub *ingest.Subscription, o ingest.Outcome) error {
	switch o.State {
	case ingest.StateCompleted:
		fmt.Fprintf(c.stderr, "\n  %s completed %s\n\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(sub.ID),
		)
		if c.asJSON {
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(o.Trace)
		}
		return render.Trace(c.stdout, *o.Trace, cliui.Width(c.stdout))

	case ingest.StateCancelled:
		fmt.Fprintf(c.stderr, "\n  %s cancelled\n", cliui.FailMark)
		return context.Canceled

	default:
		fmt.Fprintf(c.stderr, "\n  %s failed\n", cliui.FailMark)
		return fmt.Errorf("session %s failed: %w", sub.ID, o.Err)
	}
}
