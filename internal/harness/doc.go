// Package harness provides YAML-driven conformance scenarios for cleanup
// runs: a dataset, a routine or plan, and expectations over the final graph
// and the execution report.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: merge_books_by_isbn
//	description: "Duplicate books collapse onto the smaller IRI"
//	dataset: |
//	  <http://example.org/b1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Book> .
//	  ...
//	routine: |
//	  ### cleanup
//	  ## merge books @advanced
//	  ...
//	options:
//	  max_passes: 5
//	expect:
//	  state: converged
//	  passes: 2
//	  contains:
//	    - <http://example.org/b1> <http://schema.org/name> "Dune" .
//	  absent:
//	    - <http://example.org/b2> <http://schema.org/name> "Dune" .
//
// A scenario carries either an inline routine or an inline CUE plan,
// exactly one of the two.
//
// # Deterministic Execution
//
// Scenarios run against a fresh in-memory store. With a fixed run ID
// generator (testutil.SequentialRunIDs) the whole execution is
// deterministic, so reports and final graphs can be compared against
// golden files:
//
//	go test ./internal/harness -update
package harness
