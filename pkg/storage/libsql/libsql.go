//go:build libsql

// Package libsql provides a trace store backed by libSQL, either a Turso
// database over the network or a local file.
//
// go-libsql statically links its own SQLite, so this package is only built
// with the libsql tag and cannot be linked alongside go-sqlite3.
package libsql

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	_ "github.com/tursodatabase/go-libsql" // register the "libsql" driver

	"github.com/papercomputeco/rlmtrace/pkg/storage/sqlstore"
)

// Store implements storage.TraceStore using libSQL.
type Store struct {
	*sqlstore.Store
}

// NewStore opens a libSQL database. url is either a remote database URL
// ("libsql://db-org.turso.io?authToken=...") or a local "file:" path.
func NewStore(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// libSQL speaks the SQLite dialect.
	store, err := sqlstore.New(ctx, dialect.SQLite, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{Store: store}, nil
}
