// Package compiler turns declarative CUE cleanup plans into executable
// routine steps.
//
// A plan names a dataset, tuning knobs for the fixed-point driver, and a
// list of merge rules. Each merge rule identifies duplicate entities of a
// given rdf:type that share values on every key predicate, and compiles
// into a templated merge step: a pair selection ordered so the
// lexicographically smaller IRI survives, plus an update template that
// retargets incoming references and then moves outgoing statements.
//
// Plans are parsed with the CUE SDK's Go API directly (not a CLI
// subprocess); errors carry CUE source positions where available.
package compiler
