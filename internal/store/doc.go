// Package store provides SQLite-backed storage for call traces.
//
// The store is an append-only log of two tables:
//   - sessions: one row per session token, with the location its Moments
//     were read in
//   - calls: one row per dispatched call, keyed by its content-addressed ID
//
// Writes are idempotent: writing the same call twice is a no-op. All reads
// order by seq ASC, id ASC COLLATE BINARY so traces compare byte for byte.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: calls must belong to a known session
//
// Args and results are stored as RFC 8785 canonical JSON from internal/ir.
package store
