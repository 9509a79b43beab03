package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermString(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"iri", IRI("http://schema.org/Book"), "<http://schema.org/Book>"},
		{"blank node", BlankNode("b0"), "_:b0"},
		{"plain literal", NewLiteral("hello"), `"hello"`},
		{"language literal", Literal{Value: "bonjour", Lang: "fr"}, `"bonjour"@fr`},
		{
			"typed literal",
			Literal{Value: "42", Datatype: IRI("http://www.w3.org/2001/XMLSchema#integer")},
			`"42"^^<http://www.w3.org/2001/XMLSchema#integer>`,
		},
		{"xsd string datatype is implicit", Literal{Value: "x", Datatype: XSDString}, `"x"`},
		{"escaped quotes and backslash", NewLiteral(`say "hi" \now`), `"say \"hi\" \\now"`},
		{"escaped newline and tab", NewLiteral("a\nb\tc"), `"a\nb\tc"`},
		{"control character", NewLiteral("a\x01b"), `"ab"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.String())
		})
	}
}

func TestParseTermRoundTrip(t *testing.T) {
	terms := []Term{
		IRI("http://example.org/a"),
		BlankNode("node42"),
		NewLiteral("plain"),
		NewLiteral(`quotes " and \ slashes`),
		NewLiteral("line\nbreak"),
		Literal{Value: "chat", Lang: "fr-CA"},
		Literal{Value: "2024-01-01", Datatype: IRI("http://www.w3.org/2001/XMLSchema#date")},
	}

	for _, want := range terms {
		got, err := ParseTerm(want.String())
		require.NoError(t, err, want.String())
		assert.Equal(t, want, got)
	}
}

func TestParseTermUnicodeEscapes(t *testing.T) {
	got, err := ParseTerm(`"café"`)
	require.NoError(t, err)
	assert.Equal(t, NewLiteral("café"), got)

	got, err = ParseTerm(`"\U0001F600"`)
	require.NoError(t, err)
	assert.Equal(t, NewLiteral("😀"), got)
}

func TestParseTermErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unterminated iri", "<http://example.org"},
		{"unterminated literal", `"open`},
		{"empty blank label", "_:"},
		{"bad escape", `"\q"`},
		{"trailing input", `<http://a> junk`},
		{"datatype not iri", `"x"^^_:b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTerm(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestCompareSurvivorOrder(t *testing.T) {
	a := IRI("http://example.org/a")
	b := IRI("http://example.org/b")
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, IRI("http://example.org/a")))

	// IRIs sort before literals through their rendered forms.
	assert.Equal(t, -1, Compare(IRI("z"), NewLiteral("a")))
}

func TestLexicalForm(t *testing.T) {
	assert.Equal(t, "http://example.org/a", LexicalForm(IRI("http://example.org/a")))
	assert.Equal(t, "hello", LexicalForm(NewLiteral("hello")))
	assert.Equal(t, "b0", LexicalForm(BlankNode("b0")))
}

func TestSkolemize(t *testing.T) {
	iri := Skolemize(BlankNode("b12"))
	assert.Equal(t, IRI("urn:skolem:b12"), iri)
	assert.True(t, IsSkolem(iri))
	assert.False(t, IsSkolem(IRI("http://example.org/a")))

	tr := SkolemizeTriple(Triple{
		Subject:   BlankNode("x"),
		Predicate: RDFType,
		Object:    BlankNode("y"),
	})
	assert.Equal(t, IRI("urn:skolem:x"), tr.Subject)
	assert.Equal(t, RDFType, tr.Predicate)
	assert.Equal(t, IRI("urn:skolem:y"), tr.Object)
}
