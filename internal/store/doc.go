// Package store provides the SQLite-backed run log.
//
// The log is append-only and has three tables:
//   - expressions: content-addressed trees (canonical JSON and printed form)
//   - runs: one row per derive / simplify / simplify_step run
//   - passes: the tree each simplification pass produced
//
// # Ordering
//
// Runs are ordered by their seq column, a logical clock assigned by the
// engine, never by wall time. Every multi-row query orders by
// seq ASC, id ASC COLLATE BINARY (or by pass for pass rows), so reads are
// identical across processes and replays.
//
// # Identity
//
// Expression rows are keyed by expr.ID and written with
// ON CONFLICT DO NOTHING, so recording the same tree twice is a no-op.
// Run rows are keyed by the run ID the engine generates.
package store
