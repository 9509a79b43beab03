// Package rdf implements the term and triple model for the knowledge graph.
//
// The model is deliberately small: a Term is an IRI, a blank node, or a
// literal with an optional datatype or language tag. Terms are immutable
// values; the graph is only ever mutated by deleting and inserting whole
// triples, never by editing a term in place.
//
// # Canonical textual form
//
// Every term has exactly one textual rendering, its N-Triples form, produced
// by String(). All ordering decisions in the engine (binding row order,
// merge survivor selection) are byte-wise ordinal comparisons over this form.
// This makes the choice of a surviving identifier reproducible across runs
// and across process restarts.
//
// The package also provides the N-Triples/N-Quads line reader used for
// dataset loading, blank-node skolemization, and the literal cleanup pass
// applied while ingesting raw crawled data.
package rdf
