// Package cmdutil holds the wiring shared by rlmtrace commands: viper
// binding, logger construction, and opening stores, publishers and capture
// directories from configuration.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/rlmtrace/cmd/rlmtrace/sqlitepath"
	"github.com/papercomputeco/rlmtrace/pkg/capture"
	"github.com/papercomputeco/rlmtrace/pkg/cliui"
	"github.com/papercomputeco/rlmtrace/pkg/config"
	"github.com/papercomputeco/rlmtrace/pkg/dotdir"
	"github.com/papercomputeco/rlmtrace/pkg/eventstream"
	"github.com/papercomputeco/rlmtrace/pkg/eventstream/kafka"
	"github.com/papercomputeco/rlmtrace/pkg/eventstream/nop"
	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
	"github.com/papercomputeco/rlmtrace/pkg/storage/factory"
	"github.com/papercomputeco/rlmtrace/pkg/worker"
)

// Persistent flag names registered on the root command.
const (
	FlagDebug     = "debug"
	FlagJSONLogs  = "log-json"
	FlagConfigDir = "config-dir"
)

// capturesDir is the capture subdirectory of the .rlmtrace/ directory.
const capturesDir = "captures"

// StorageFlags are the registry keys of the storage backend flags.
var StorageFlags = []string{
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagLibSQL,
	config.FlagRedis,
}

// AddStorageFlags registers the storage backend flags on cmd.
func AddStorageFlags(cmd *cobra.Command) {
	for _, key := range StorageFlags {
		config.AddStringFlag(cmd, config.Flags, key, new(string))
	}
}

// Viper loads configuration for cmd and binds the given registry flags so
// they take precedence over env and file values.
func Viper(cmd *cobra.Command, flagKeys ...string) (*viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString(FlagConfigDir)
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	if err := config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys); err != nil {
		return nil, err
	}
	return v, nil
}

// NewLogger builds the command logger from the persistent flags. Logs go to
// the command's stderr so output on stdout stays machine readable.
func NewLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	jsonLogs, _ := cmd.Flags().GetBool(FlagJSONLogs)
	w := cmd.ErrOrStderr()

	return logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(jsonLogs),
		logger.WithPretty(!jsonLogs && cliui.IsTerminal(w)),
		logger.WithWriter(w),
	)
}

// StorageOptions reads the storage section of v.
func StorageOptions(v *viper.Viper) factory.Options {
	return factory.Options{
		PostgresDSN: v.GetString("storage.postgres_dsn"),
		LibSQLURL:   v.GetString("storage.libsql_url"),
		RedisURL:    v.GetString("storage.redis_url"),
		RedisPrefix: v.GetString("storage.redis_prefix"),
		SQLitePath:  v.GetString("storage.sqlite_path"),
	}
}

// OpenStore opens the configured store, falling back to memory.
func OpenStore(ctx context.Context, v *viper.Viper, log *slog.Logger) (storage.TraceStore, error) {
	return factory.Open(ctx, StorageOptions(v), log)
}

// OpenPersistentStore opens the configured store. When no backend is
// configured it looks for an existing SQLite database instead of using
// memory, since reading traces from a fresh in-memory store is pointless.
func OpenPersistentStore(ctx context.Context, v *viper.Viper, log *slog.Logger) (storage.TraceStore, error) {
	opts := StorageOptions(v)
	if opts.Backend() == "memory" {
		path, err := sqlitepath.ResolveSQLitePath("")
		if err != nil {
			return nil, err
		}
		opts.SQLitePath = path
	}
	return factory.Open(ctx, opts, log)
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// discarding one otherwise.
func NewPublisher(v *viper.Viper, log *slog.Logger) (eventstream.Publisher, error) {
	brokers := SplitList(v.GetString("eventstream.kafka_brokers"))
	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   v.GetString("eventstream.kafka_topic"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	logger.OrNop(log).Info("publishing trace events to kafka",
		"brokers", brokers,
		"topic", v.GetString("eventstream.kafka_topic"),
	)
	return p, nil
}

// CaptureDir returns the capture directory, or nil when capture is disabled.
// Without an explicit capture.dir, captures live in .rlmtrace/captures.
func CaptureDir(cmd *cobra.Command, v *viper.Viper) (*capture.Dir, error) {
	if !v.GetBool("capture.enabled") {
		return nil, nil
	}

	dir := v.GetString("capture.dir")
	if dir == "" {
		configDir, _ := cmd.Flags().GetString(FlagConfigDir)
		sub, err := dotdir.NewManager().Sub(configDir, capturesDir)
		if err != nil {
			return nil, err
		}
		dir = sub
	}
	return capture.NewDir(dir)
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CloseStore closes store, logging rather than returning the error.
func CloseStore(store storage.TraceStore, log *slog.Logger) {
	if err := store.Close(); err != nil && !errors.Is(err, context.Canceled) {
		logger.OrNop(log).Warn("closing trace store", "error", err)
	}
}

// Sink persists completed traces and announces them through a worker pool.
type Sink struct {
	Store     storage.TraceStore
	Publisher eventstream.Publisher
	Pool      *worker.Pool
	logger    *slog.Logger
}

// OpenSink opens the configured store and publisher and starts a pool
// feeding them.
func OpenSink(ctx context.Context, v *viper.Viper, log *slog.Logger) (*Sink, error) {
	store, err := OpenStore(ctx, v, log)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(v, log)
	if err != nil {
		CloseStore(store, log)
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Store:     store,
		Publisher: publisher,
		Logger:    log,
	})
	if err != nil {
		_ = publisher.Close()
		CloseStore(store, log)
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	return &Sink{Store: store, Publisher: publisher, Pool: pool, logger: logger.OrNop(log)}, nil
}

// OnComplete queues a completed trace. It matches ingest.Config.OnComplete.
func (s *Sink) OnComplete(trace rlm.Trace) {
	s.Pool.EnqueueTrace(trace)
}

// Close drains queued traces, then closes the publisher and the store.
func (s *Sink) Close() {
	s.Pool.Close()
	if err := s.Publisher.Close(); err != nil {
		s.logger.Warn("closing publisher", "error", err)
	}
	CloseStore(s.Store, s.logger)
}
