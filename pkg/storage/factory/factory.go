// Package factory selects and opens a trace store from configuration.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
	"github.com/papercomputeco/rlmtrace/pkg/storage/inmemory"
	"github.com/papercomputeco/rlmtrace/pkg/storage/postgres"
	"github.com/papercomputeco/rlmtrace/pkg/storage/redis"
	"github.com/papercomputeco/rlmtrace/pkg/storage/sqlite"
)

// Options names at most one backend. When several are set the first in
// field order wins; when none are set traces are kept in memory.
type Options struct {
	PostgresDSN string
	LibSQLURL   string
	RedisURL    string
	RedisPrefix string
	SQLitePath  string
}

// Backend reports which store Open will create.
func (o Options) Backend() string {
	switch {
	case o.PostgresDSN != "":
		return "postgres"
	case o.LibSQLURL != "":
		return "libsql"
	case o.RedisURL != "":
		return "redis"
	case o.SQLitePath != "":
		return "sqlite"
	default:
		return "memory"
	}
}

// Open creates the trace store the options select.
func Open(ctx context.Context, opts Options, log *slog.Logger) (storage.TraceStore, error) {
	log = logger.OrNop(log)

	switch opts.Backend() {
	case "postgres":
		s, err := postgres.NewStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return s, nil

	case "libsql":
		s, err := openLibSQL(ctx, opts.LibSQLURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create libSQL store: %w", err)
		}
		log.Info("using libSQL storage")
		return s, nil

	case "redis":
		s, err := redis.Open(ctx, opts.RedisURL, opts.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		log.Info("using Redis storage")
		return s, nil

	case "sqlite":
		s, err := sqlite.NewStore(ctx, opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		log.Info("using SQLite storage", "path", opts.SQLitePath)
		return s, nil
	}

	log.Info("using in-memory storage")
	return inmemory.NewStore(), nil
}
