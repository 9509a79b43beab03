package rdf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain triple untouched",
			in:   `<http://example.org/s> <http://example.org/p> <http://example.org/o> .`,
			want: `<http://example.org/s> <http://example.org/p> <http://example.org/o> .`,
		},
		{
			name: "quad loses graph name",
			in:   `<http://example.org/s> <http://example.org/p> "v" <http://example.org/graph> .`,
			want: `<http://example.org/s> <http://example.org/p> "v" .`,
		},
		{
			name: "literal object quad",
			in:   `<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://g> .`,
			want: `<http://example.org/s> <http://example.org/p> <http://example.org/o> .`,
		},
		{
			name: "replacement character dropped",
			in:   "<http://example.org/s> <http://example.org/p> \"bro�ken\" .",
			want: `<http://example.org/s> <http://example.org/p> "broken" .`,
		},
		{
			name: "schema.org https folded to http",
			in:   `<http://example.org/s> <https://schema.org/Name> "x" .`,
			want: `<http://example.org/s> <http://schema.org/name> "x" .`,
		},
		{
			name: "type artifact rewritten",
			in:   `<http://example.org/s> <@type:> <http://schema.org/Book> .`,
			want: `<http://example.org/s> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Book> .`,
		},
		{
			name: "blank nodes skolemized",
			in:   `_:b0 <http://example.org/p> _:b1 .`,
			want: `<urn:skolem:b0> <http://example.org/p> <urn:skolem:b1> .`,
		},
		{
			name: "json fragment requoted",
			in:   `<http://example.org/s> <http://example.org/p> <{"a": 1}> .`,
			want: `<http://example.org/s> <http://example.org/p> "{"a": 1}" .`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanLine(tt.in))
		})
	}
}

func TestCleanLineNFC(t *testing.T) {
	// e followed by combining acute accent normalizes to the precomposed form.
	in := "<http://example.org/s> <http://example.org/p> \"café\" ."
	want := "<http://example.org/s> <http://example.org/p> \"café\" ."
	assert.Equal(t, want, CleanLine(in))
}

func TestPreprocess(t *testing.T) {
	in := strings.Join([]string{
		`_:n0 <https://schema.org/Name> "Ada" <http://crawl/graph1> .`,
		`<http://example.org/a> <http://example.org/p> "keep" .`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, Preprocess(strings.NewReader(in), &out))

	triples, err := ReadTriples(&out)
	require.NoError(t, err)
	require.Len(t, triples, 2)
	assert.Equal(t, IRI("urn:skolem:n0"), triples[0].Subject)
	assert.Equal(t, IRI("http://schema.org/name"), triples[0].Predicate)
	assert.Equal(t, NewLiteral("Ada"), triples[0].Object)
	assert.Equal(t, NewLiteral("keep"), triples[1].Object)
}
