package rdf

import "strings"

// SkolemPrefix is the IRI namespace for provisional identifiers minted in
// place of blank nodes. Entities under this prefix are expected to be merged
// into canonical identifiers or pruned once cleanup routines converge.
const SkolemPrefix = "urn:skolem:"

// Skolemize converts a blank node into a provisional IRI under SkolemPrefix.
// Blank node labels are document scoped, so skolemization must happen while
// the source document is loaded, before triples from different documents mix.
func Skolemize(b BlankNode) IRI {
	return IRI(SkolemPrefix + string(b))
}

// IsSkolem reports whether an IRI is a provisional skolem identifier.
func IsSkolem(i IRI) bool {
	return strings.HasPrefix(string(i), SkolemPrefix)
}

// SkolemizeTriple replaces any blank node in the triple with its skolem IRI.
func SkolemizeTriple(t Triple) Triple {
	if b, ok := t.Subject.(BlankNode); ok {
		t.Subject = Skolemize(b)
	}
	if b, ok := t.Predicate.(BlankNode); ok {
		t.Predicate = Skolemize(b)
	}
	if b, ok := t.Object.(BlankNode); ok {
		t.Object = Skolemize(b)
	}
	return t
}
