// Package ingest turns a live event stream into a trace.
//
// A Controller owns one session at a time. Its reader goroutine splits the
// transport's bytes into frames, decodes them into events and applies each
// event to the session's Accumulator as one step under the controller lock.
// After every step an immutable Snapshot is published, so readers never
// block the writer and never observe a partially applied event.
//
//	transport ──▶ sse.Reader ──▶ event.Decode ──▶ Accumulator ──▶ Snapshot
//	                                                   │
//	                                         complete ─┴─▶ rlm.Trace
package ingest
