package rdf

import (
	"fmt"
	"strings"
)

// Well-known IRIs used by the engine.
const (
	// RDFType is the rdf:type predicate, abbreviated "a" in query syntax.
	RDFType = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")

	// XSDString is the implicit datatype of plain literals. It is never
	// rendered explicitly in N-Triples form.
	XSDString = IRI("http://www.w3.org/2001/XMLSchema#string")
)

// Term is a sealed interface over the three RDF term kinds: IRI, BlankNode,
// and Literal. Only those types implement it.
//
// String() returns the N-Triples form of the term. The engine relies on this
// form being canonical: equal terms render identically, and ordinal
// comparison of rendered forms is the tie-break for merge survivor selection.
type Term interface {
	String() string
	term()
}

// IRI is a global identifier. The value is stored without angle brackets.
type IRI string

func (IRI) term() {}

// String returns the angle-bracketed N-Triples form.
func (i IRI) String() string { return "<" + string(i) + ">" }

// BlankNode is a document-scoped identifier. The value is the label without
// the leading "_:". Blank nodes are skolemized into urn:skolem IRIs during
// ingestion, so they normally do not survive into the store.
type BlankNode string

func (BlankNode) term() {}

// String returns the "_:label" N-Triples form.
func (b BlankNode) String() string { return "_:" + string(b) }

// Literal is a string value with an optional datatype or language tag.
// Lang and Datatype are mutually exclusive; a literal with neither is a
// plain xsd:string literal.
type Literal struct {
	Value    string
	Datatype IRI
	Lang     string
}

func (Literal) term() {}

// String returns the quoted, escaped N-Triples form, including the language
// tag or datatype suffix. The implicit xsd:string datatype is omitted.
func (l Literal) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	escapeLiteral(&sb, l.Value)
	sb.WriteByte('"')
	if l.Lang != "" {
		sb.WriteByte('@')
		sb.WriteString(l.Lang)
	} else if l.Datatype != "" && l.Datatype != XSDString {
		sb.WriteString("^^")
		sb.WriteString(l.Datatype.String())
	}
	return sb.String()
}

// NewLiteral returns a plain string literal.
func NewLiteral(value string) Literal {
	return Literal{Value: value}
}

// Compare orders two terms by ordinal comparison of their N-Triples forms.
// Returns -1, 0, or 1. This is the canonical-survivor tie-break: for a
// duplicate pair the term that compares smaller is the survivor.
func Compare(a, b Term) int {
	return strings.Compare(a.String(), b.String())
}

// Equal reports whether two terms are the same term.
func Equal(a, b Term) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b || a.String() == b.String()
}

// LexicalForm returns the value a term contributes to string functions:
// the IRI text for IRIs, the literal value for literals, and the label for
// blank nodes. This is the SPARQL STR() semantics.
func LexicalForm(t Term) string {
	switch v := t.(type) {
	case IRI:
		return string(v)
	case Literal:
		return v.Value
	case BlankNode:
		return string(v)
	default:
		return ""
	}
}

// escapeLiteral writes value with N-Triples string escaping applied.
func escapeLiteral(sb *strings.Builder, value string) {
	for _, r := range value {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
}
