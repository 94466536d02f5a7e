// Package servecmder provides the serve command, which runs the HTTP API.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/rlmtrace/api"
	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/cmdutil"
	"github.com/papercomputeco/rlmtrace/pkg/config"
	"github.com/papercomputeco/rlmtrace/pkg/ingest"
	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/transport"
)

type ServeCommander struct {
	listen     string
	upstream   string
	disableMCP bool
	logFile    string
	logger     *slog.Logger
}

const serveLongDesc string = `Run the rlmtrace API server.

The server starts sessions against the RLM producer at upstream.url, streams
their progress to clients as server-sent events, and serves stored traces.
Completed traces are persisted by a background worker pool and, when Kafka
brokers are configured, announced on the trace events topic. An MCP endpoint
at /mcp exposes the stored traces to agents.

Examples:
  rlmtrace serve
  rlmtrace serve --listen :9000 --sqlite ~/.rlmtrace/rlmtrace.db
  rlmtrace serve --log-file ~/.rlmtrace/serve.log
  rlmtrace serve --postgres postgres://localhost/rlmtrace --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the rlmtrace API server"

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagUpstream,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagCaptureDir,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cmdutil.Viper(cmd, append(serveFlags, cmdutil.StorageFlags...)...)
			if err != nil {
				return err
			}
			cmder.logger = cmdutil.NewLogger(cmd)
			if cmder.logFile != "" {
				f, err := os.OpenFile(cmder.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				debug, _ := cmd.Flags().GetBool(cmdutil.FlagDebug)
				cmder.logger = logger.Multi(cmder.logger, logger.New(
					logger.WithDebug(debug),
					logger.WithJSON(true),
					logger.WithWriter(f),
					logger.WithComponent("serve"),
				))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, cmd, v)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, new(string))
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, new(string))
	config.AddStringFlag(cmd, config.Flags, config.FlagCaptureDir, new(string))
	cmd.Flags().BoolVar(&cmder.disableMCP, "disable-mcp", false, "Do not serve the MCP endpoint")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")
	cmdutil.AddStorageFlags(cmd)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	sink, err := cmdutil.OpenSink(ctx, v, c.logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	upstream := v.GetString("upstream.url")
	controllerCfg := ingest.Config{
		Transport:  transport.NewHTTP(upstream, transport.WithLogger(c.logger)),
		Logger:     c.logger,
		OnComplete: sink.OnComplete,
	}
	captures, err := cmdutil.CaptureDir(cmd, v)
	if err != nil {
		return err
	}
	if captures != nil {
		controllerCfg.Capture = captures
		c.logger.Info("capturing streams", "dir", captures.Path())
	}

	controller, err := ingest.NewController(controllerCfg)
	if err != nil {
		return err
	}
	defer controller.Cancel()

	server, err := api.NewServer(api.Config{
		ListenAddr: v.GetString("api.listen"),
		DisableMCP: c.disableMCP,
	}, sink.Store, controller, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("forwarding sessions", "upstream", upstream)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return server.Shutdown()
	}
}
