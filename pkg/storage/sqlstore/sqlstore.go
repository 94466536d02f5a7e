// Package sqlstore provides a database-agnostic trace store built on ent's
// SQL dialect builder. The sqlite, postgres and libsql packages open a
// connection for their database and wrap it with this store.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

// Table is the name of the traces table.
const Table = "traces"

// Store implements storage.TraceStore over a *sql.DB.
type Store struct {
	drv *entsql.Driver
}

// New wraps db with the given ent dialect (dialect.SQLite,
// dialect.Postgres) and creates the traces table when it doesn't exist.
func New(ctx context.Context, dialectName string, db *sql.DB) (*Store, error) {
	s := &Store{drv: entsql.OpenDB(dialectName, db)}
	if err := s.migrate(ctx); err != nil {
		s.drv.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Dialect returns the SQL dialect of the underlying connection.
func (s *Store) Dialect() string {
	return s.drv.Dialect()
}

// migrate is append-only: new columns and indexes may be added, existing
// ones are never altered.
func (s *Store) migrate(ctx context.Context) error {
	create, args := entsql.Dialect(s.drv.Dialect()).
		CreateTable(Table).
		IfNotExists().
		Columns(
			entsql.Column("id").Type("varchar(255)").Attr("NOT NULL"),
			entsql.Column("file_name").Type("varchar(255)").Attr("NOT NULL"),
			entsql.Column("question").Type("text").Attr("NOT NULL"),
			entsql.Column("created_at").Type("bigint").Attr("NOT NULL"),
			entsql.Column("iterations").Type("integer").Attr("NOT NULL"),
			entsql.Column("final_answer").Type("text"),
			entsql.Column("body").Type("text").Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()

	stmts := []struct {
		query string
		args  []any
	}{
		{create, args},
		{"CREATE INDEX IF NOT EXISTS traces_file_name_created_at ON traces (file_name, created_at)", nil},
		{"CREATE INDEX IF NOT EXISTS traces_created_at ON traces (created_at)", nil},
	}
	for _, stmt := range stmts {
		var res sql.Result
		if err := s.drv.Exec(ctx, stmt.query, stmt.args, &res); err != nil {
			return err
		}
	}
	return nil
}

// Put stores a trace, replacing any trace with the same ID.
func (s *Store) Put(ctx context.Context, trace *rlm.Trace) error {
	if trace == nil {
		return storage.ErrNilTrace
	}

	body, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	var finalAnswer any
	if trace.Metadata.FinalAnswer != nil {
		finalAnswer = *trace.Metadata.FinalAnswer
	}

	query, args := entsql.Dialect(s.drv.Dialect()).
		Insert(Table).
		Columns("id", "file_name", "question", "created_at", "iterations", "final_answer", "body").
		Values(
			trace.ID,
			trace.FileName,
			trace.Question,
			trace.CreatedAt.UnixNano(),
			len(trace.Iterations),
			finalAnswer,
			string(body),
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("failed to store trace %s: %w", trace.ID, err)
	}
	return nil
}

// Get retrieves a trace by ID.
func (s *Store) Get(ctx context.Context, id string) (*rlm.Trace, error) {
	selector := entsql.Dialect(s.drv.Dialect()).
		Select("body").
		From(entsql.Table(Table)).
		Where(entsql.EQ("id", id))

	traces, err := s.query(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(traces) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}
	return traces[0], nil
}

// List returns traces matching the query, newest first.
func (s *Store) List(ctx context.Context, q storage.TraceQuery) ([]*rlm.Trace, error) {
	selector := entsql.Dialect(s.drv.Dialect()).
		Select("body").
		From(entsql.Table(Table)).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("id"))

	if q.FileName != "" {
		selector.Where(entsql.EQ("file_name", q.FileName))
	}

	// SQLite rejects OFFSET without LIMIT.
	switch {
	case q.Limit > 0:
		selector.Limit(q.Limit)
	case q.Offset > 0:
		selector.Limit(math.MaxInt32)
	}
	if q.Offset > 0 {
		selector.Offset(q.Offset)
	}

	return s.query(ctx, selector)
}

// Delete removes a trace.
func (s *Store) Delete(ctx context.Context, id string) error {
	query, args := entsql.Dialect(s.drv.Dialect()).
		Delete(Table).
		Where(entsql.EQ("id", id)).
		Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("failed to delete trace %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete trace %s: %w", id, err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: id}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

func (s *Store) query(ctx context.Context, selector *entsql.Selector) ([]*rlm.Trace, error) {
	query, args := selector.Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	traces := []*rlm.Trace{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}

		trace := &rlm.Trace{}
		if err := json.Unmarshal([]byte(body), trace); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
		traces = append(traces, trace)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read traces: %w", err)
	}
	return traces, nil
}
