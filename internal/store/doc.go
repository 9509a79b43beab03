// Package store implements the triple store the routine engine runs against.
//
// The store keeps the full graph in memory for pattern matching and writes
// through to SQLite for durability. SQLite also holds the history journal:
// an append-only record of every routine statement applied, stamped with a
// run identifier and a per-run sequence number, which makes a cleanup run
// replayable.
//
// # Contract
//
// The engine consumes two operations:
//
//   - Select evaluates a read-only selection query and returns binding rows
//     in a deterministic order (ordinal sort over the rendered forms of the
//     projected terms).
//   - Apply executes one delete-then-insert rewrite unit atomically: the
//     WHERE clause is solved against the pre-rewrite graph, every matching
//     delete is removed, then every insert is added, all inside a single
//     SQLite transaction under the store's writer lock.
//
// The graph is a set: inserting an existing triple is a no-op, and the
// reported delta counts only triples actually removed or added.
//
// # Versioning
//
// DumpVersion and Revert implement coarse version control over the graph as
// numbered N-Triples files, so a destructive cleanup routine can be undone.
// Each dump leaves a marker in the history journal and Revert truncates the
// journal at that marker, keeping the journal in step with the graph.
package store
