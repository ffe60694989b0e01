// Package store provides SQLite-backed durable storage for the provenance
// ledger: per-address state fragments plus the append-only operation log.
//
// Invariants:
//
//   - All ordering uses seq INTEGER (logical clock), never timestamps.
//     Replays are deterministic regardless of wall time.
//
//   - Every multi-row read is ordered: ORDER BY seq ASC, then a key column
//     ASC COLLATE BINARY. Identical queries return identical row orders
//     across replays.
//
//   - Commits are atomic and idempotent: the commit row, its operations,
//     and its dirty fragments land in one SQLite transaction, and
//     re-committing a transaction id is a silent no-op.
//
//   - Bodies are canonical JSON (RFC 8785). Byte comparison of stored
//     fragments is structural comparison.
//
// Database configuration: WAL mode for concurrent reads during writes,
// synchronous=NORMAL, busy_timeout=5000, foreign keys on, a single-writer
// connection pool, and PRAGMA user_version schema migrations.
package store
