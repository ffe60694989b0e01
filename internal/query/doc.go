// Package query defines a small sealed filter language over the
// committed operation log and compiles it to parameterized SQL.
//
// Filters are backend-independent values; the SQL compiler is the only
// backend today, but the sealed-interface shape keeps a future triple
// store backend from needing filter changes. Every compiled query
// carries an ORDER BY with a full deterministic tiebreaker, so results
// are byte-stable across runs and SQLite versions.
package query
