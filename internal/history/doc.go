// Package history implements the append-only historical ledger: one
// statistics record per calendar period, keyed by the YYYY-MM period
// string, backed by SQLite.
//
// The ledger has only two observable states, empty and non-empty; every
// operation is a pure read or a guarded insert. Uniqueness per period is
// enforced by the store itself (primary key + INSERT OR IGNORE), not by
// callers, so a second insert for a recorded period is a no-op that leaves
// the original record in place.
//
// The surrounding application is single-writer: one manifest-processing
// run completes before the next begins. The store still routes the
// insert-if-absent through the storage engine's atomic conflict handling,
// so period uniqueness survives even if that assumption is ever violated.
package history
