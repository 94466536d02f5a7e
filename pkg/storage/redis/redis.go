// Package redis provides a Redis-backed trace store.
//
// Each trace is kept as a JSON string under "<prefix>trace:<id>". Two sorted
// sets scored by creation time index the traces: "<prefix>traces" holds
// every ID and "<prefix>file:<name>" holds the IDs of one document.
package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	goredis "github.com/redis/go-redis/v9"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "rlmtrace:"

// Store implements storage.TraceStore using Redis.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// NewStore creates a store on an existing client. An empty prefix uses
// DefaultPrefix. The store owns the client and closes it on Close.
func NewStore(ctx context.Context, rdb *goredis.Client, prefix string) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

// Open connects to the server named by a redis:// URL.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := goredis.NewClient(opts)
	s, err := NewStore(ctx, rdb, prefix)
	if err != nil {
		rdb.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) traceKey(id string) string {
	return s.prefix + "trace:" + id
}

func (s *Store) allKey() string {
	return s.prefix + "traces"
}

func (s *Store) fileKey(name string) string {
	return s.prefix + "file:" + name
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

	previous, err := s.Get(ctx, trace.ID)
	var notFound storage.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}

	member := goredis.Z{Score: float64(trace.CreatedAt.UnixMicro()), Member: trace.ID}
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if previous != nil && previous.FileName != trace.FileName {
			pipe.ZRem(ctx, s.fileKey(previous.FileName), trace.ID)
		}
		pipe.Set(ctx, s.traceKey(trace.ID), body, 0)
		pipe.ZAdd(ctx, s.allKey(), member)
		pipe.ZAdd(ctx, s.fileKey(trace.FileName), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store trace %s: %w", trace.ID, err)
	}
	return nil
}

// Get retrieves a trace by ID.
func (s *Store) Get(ctx context.Context, id string) (*rlm.Trace, error) {
	body, err := s.rdb.Get(ctx, s.traceKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trace %s: %w", id, err)
	}

	trace := &rlm.Trace{}
	if err := json.Unmarshal(body, trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace %s: %w", id, err)
	}
	return trace, nil
}

// List returns traces matching the query, newest first. Traces created at
// the same instant are ordered by ID.
func (s *Store) List(ctx context.Context, q storage.TraceQuery) ([]*rlm.Trace, error) {
	index := s.allKey()
	if q.FileName != "" {
		index = s.fileKey(q.FileName)
	}

	members, err := s.rdb.ZRevRangeWithScores(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}

	slices.SortStableFunc(members, func(a, b goredis.Z) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Member.(string), b.Member.(string))
	})

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.traceKey(m.Member.(string))
	}

	keys = page(keys, q)
	if len(keys) == 0 {
		return []*rlm.Trace{}, nil
	}

	bodies, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load traces: %w", err)
	}

	traces := make([]*rlm.Trace, 0, len(bodies))
	for _, body := range bodies {
		// Deleted between the range and the load.
		str, ok := body.(string)
		if !ok {
			continue
		}
		trace := &rlm.Trace{}
		if err := json.Unmarshal([]byte(str), trace); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
		traces = append(traces, trace)
	}
	return traces, nil
}

// Delete removes a trace.
func (s *Store) Delete(ctx context.Context, id string) error {
	trace, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.traceKey(id))
		pipe.ZRem(ctx, s.allKey(), id)
		pipe.ZRem(ctx, s.fileKey(trace.FileName), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete trace %s: %w", id, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func page(keys []string, q storage.TraceQuery) []string {
	if q.Offset >= len(keys) {
		return nil
	}
	keys = keys[q.Offset:]
	if q.Limit > 0 && q.Limit < len(keys) {
		keys = keys[:q.Limit]
	}
	return keys
}
