package rdf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriple(t *testing.T) {
	got, err := ParseTriple(`<http://example.org/s> <http://example.org/p> "v"@en .`)
	require.NoError(t, err)
	assert.Equal(t, IRI("http://example.org/s"), got.Subject)
	assert.Equal(t, IRI("http://example.org/p"), got.Predicate)
	assert.Equal(t, Literal{Value: "v", Lang: "en"}, got.Object)
	assert.Equal(t, `<http://example.org/s> <http://example.org/p> "v"@en .`, got.String())
}

func TestParseTripleErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing dot", "<http://a> <http://b> <http://c>"},
		{"two terms", "<http://a> <http://b> ."},
		{"four terms", "<http://a> <http://b> <http://c> <http://d> ."},
		{"garbage", "not a triple"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTriple(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestReadTriples(t *testing.T) {
	doc := `
# a comment
<http://example.org/a> <http://example.org/p> "one" .

<http://example.org/b> <http://example.org/p> "two" .
`
	triples, err := ReadTriples(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, triples, 2)
	assert.Equal(t, IRI("http://example.org/a"), triples[0].Subject)
	assert.Equal(t, IRI("http://example.org/b"), triples[1].Subject)
}

func TestReadTriplesReportsLineNumber(t *testing.T) {
	doc := "<http://example.org/a> <http://example.org/p> \"ok\" .\nbroken line\n"
	_, err := ReadTriples(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteTriplesRoundTrip(t *testing.T) {
	want := []Triple{
		{Subject: IRI("http://example.org/a"), Predicate: RDFType, Object: IRI("http://schema.org/Book")},
		{Subject: IRI("http://example.org/a"), Predicate: IRI("http://schema.org/name"), Object: NewLiteral("Dune")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTriples(&buf, want))

	got, err := ReadTriples(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
