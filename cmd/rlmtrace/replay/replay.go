// Package replaycmder provides the replay command, which ingests captured
// streams as if they were arriving live.
package replaycmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/render"
	"github.com/papercomputeco/rlmtrace/pkg/capture"
	"github.com/papercomputeco/rlmtrace/pkg/cliui"
	"github.com/papercomputeco/rlmtrace/pkg/config"
	"github.com/papercomputeco/rlmtrace/pkg/ingest"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/transport"
)

const replayLongDesc string = `Ingest captured streams.

A capture is the raw event stream of a session, saved by "rlmtrace run" and
"rlmtrace serve" under .rlmtrace/captures/. Replaying a capture runs it
through the same pipeline as a live session and stores the resulting trace
under the capture's session ID, so replaying a capture twice replaces the
trace rather than duplicating it.

With --watch, rlmtrace keeps running and ingests every capture that appears
in the directory once writes to it settle and its stream has ended with a
complete or error event. Captures of sessions still streaming are left
until they end.

Examples:
  rlmtrace replay .rlmtrace/captures/6f1c0c.sse
  rlmtrace replay --watch
  rlmtrace replay --watch /var/captures --sqlite traces.db`

const replayShortDesc string = "Ingest captured streams"

type replayCommander struct {
	watch    bool
	debounce time.Duration
	asJSON   bool

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	sink   *cmdutil.Sink
}

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay [capture | dir]",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmder.watch && len(args) == 0 {
				return errors.New("a capture file is required unless --watch is set")
			}

			v, err := cmdutil.Viper(cmd, append([]string{config.FlagCaptureDir}, cmdutil.StorageFlags...)...)
			if err != nil {
				return err
			}
			cmder.stdout = cmd.OutOrStdout()
			cmder.stderr = cmd.ErrOrStderr()
			cmder.logger = cmdutil.NewLogger(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmder.sink, err = cmdutil.OpenSink(ctx, v, cmder.logger)
			if err != nil {
				return err
			}
			defer cmder.sink.Close()

			if !cmder.watch {
				return cmder.replay(ctx, args[0])
			}

			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return cmder.watchDir(ctx, cmd, v, dir)
		},
	}

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Watch a capture directory and ingest new captures")
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", capture.DefaultDebounce, "How long a capture must stay unchanged before it is ingested")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print each trace as a line of JSON")
	config.AddStringFlag(cmd, config.Flags, config.FlagCaptureDir, new(string))
	cmdutil.AddStorageFlags(cmd)

	return cmd
}

// replay ingests one capture and reports the trace.
func (c *replayCommander) replay(ctx context.Context, path string) error {
	sessionID := strings.TrimSuffix(filepath.Base(path), capture.Ext)

	controller, err := ingest.NewController(ingest.Config{
		Transport: transport.NewFile(path),
		Logger:    c.logger,
		OnComplete: func(t rlm.Trace) {
			t.ID = sessionID
			c.sink.OnComplete(t)
		},
	})
	if err != nil {
		return err
	}

	sub, err := controller.Start(context.WithoutCancel(ctx), transport.Request{
		FileName: filepath.Base(path),
	})
	if err != nil {
		return err
	}

	outcome := render.Follow(ctx, sub, render.NewProgress(c.stderr, false))
	switch outcome.State {
	case ingest.StateCompleted:
		t := *outcome.Trace
		t.ID = sessionID
		return c.report(t)
	case ingest.StateCancelled:
		return context.Canceled
	default:
		return fmt.Errorf("replaying %s: %w", path, outcome.Err)
	}
}

func (c *replayCommander) report(t rlm.Trace) error {
	if c.asJSON {
		return json.NewEncoder(c.stdout).Encode(t)
	}
	_, err := fmt.Fprintf(c.stdout, "%s %s\n", cliui.SuccessMark, render.SummaryLine(t.Summary()))
	return err
}

// watchDir ingests captures as they settle and end until ctx is done. A
// capture that fails to replay is logged and skipped.
func (c *replayCommander) watchDir(ctx context.Context, cmd *cobra.Command, v *viper.Viper, dir string) error {
	if dir == "" {
		captures, err := cmdutil.CaptureDir(cmd, v)
		if err != nil {
			return err
		}
		if captures == nil {
			return errors.New("capture is disabled; pass a directory to watch")
		}
		dir = captures.Path()
	}

	w := capture.NewWatcher(dir, c.debounce, c.logger)
	err := w.Run(ctx, func(ctx context.Context, path string) {
		if err := c.replay(ctx, path); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("replay failed", "path", path, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
