// Package engine executes cleanup routines against a triple store.
//
// The engine is the heart of the cleaner: it interprets an ordered set of
// graph-rewrite rules, applies them deterministically, and drives merge and
// prune rules to a fixed point.
//
// ARCHITECTURE:
//
// Sequential single-writer execution:
// One step at a time, one binding row at a time within a step, one rewrite
// unit at a time. This removes all write-write and read-write races by
// construction. Routine execution is batch maintenance, not a serving path,
// so the lost throughput is acceptable and determinism is not.
//
// Step execution flow:
//  1. A DirectRewrite goes straight to the store as delete+insert units.
//  2. A TemplatedMerge first enumerates its selection query into a snapshot
//     of binding rows, then instantiates and applies the rewrite template
//     row by row. Rewrites from row i never change which rows were
//     enumerated for rows i+1..n in the same pass.
//
// Fixed-point driving:
// A merge can strand an entity with nothing but a type assertion, and
// pruning that entity can expose a new duplicate-key opportunity, so a
// single pass is not guaranteed sufficient. When fixpoint mode is on, the
// engine repeats merge steps plus the orphan pruning pass until a pass
// changes nothing or the pass cap is reached. Hitting the cap is reported
// as a non-convergence warning, never as a failure.
//
// DETERMINISM:
// Binding rows arrive from the store in a stable order, duplicate pairs are
// oriented so the lexicographically smaller identifier survives, and steps
// run in declaration order. The same routine file over the same graph
// always produces the same final graph.
package engine
