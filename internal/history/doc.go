// Package history records format invocations in a local SQLite database.
//
// The store is bookkeeping, not a source of truth: recording is best-effort
// and a history fault never fails a format call. Retention is bounded by the
// configured keep count; older rows are pruned on insert.
package history
