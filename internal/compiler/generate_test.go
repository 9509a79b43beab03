package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/sparql"
)

func TestGenerate(t *testing.T) {
	p := &Plan{
		Name: "books",
		Merges: []MergeRule{
			{Type: "http://schema.org/Book", Keys: []string{"http://schema.org/isbn"}},
			{Type: "http://schema.org/Person", Keys: []string{"http://schema.org/name", "http://schema.org/birthDate"}},
		},
	}

	rf, err := Generate(p)
	require.NoError(t, err)
	assert.Equal(t, "books", rf.Name)
	require.Len(t, rf.Steps, 2)
	assert.Equal(t, "merge Book", rf.Steps[0].StepName())
	assert.Equal(t, "merge Person", rf.Steps[1].StepName())
}

func TestGenerateSelectionShape(t *testing.T) {
	p := &Plan{
		Name:   "books",
		Merges: []MergeRule{{Type: "http://schema.org/Book", Keys: []string{"http://schema.org/isbn"}}},
	}

	rf, err := Generate(p)
	require.NoError(t, err)

	step, ok := rf.Steps[0].(interface {
		Instantiate(sparql.Binding) ([]*sparql.UpdateRequest, error)
	})
	require.True(t, ok)

	row := sparql.Binding{
		"s1": rdf.IRI("http://example.org/a"),
		"s2": rdf.IRI("http://example.org/b"),
	}
	updates, err := step.Instantiate(row)
	require.NoError(t, err)
	require.Len(t, updates, 2, "retarget incoming, then move outgoing")

	// First statement rewrites objects, second rewrites subjects.
	require.Len(t, updates[0].Delete, 1)
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/b")}, updates[0].Delete[0].Object)
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/a")}, updates[0].Insert[0].Object)
	require.Len(t, updates[1].Delete, 1)
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/b")}, updates[1].Delete[0].Subject)
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/a")}, updates[1].Insert[0].Subject)
}

func TestGenerateSelectionText(t *testing.T) {
	sel := mergeSelection(MergeRule{
		Type: "http://schema.org/Place",
		Keys: []string{"http://schema.org/name", "http://schema.org/geo"},
	})

	assert.Contains(t, sel, "?s1 a <http://schema.org/Place>")
	assert.Contains(t, sel, "?s1 <http://schema.org/name> ?k0")
	assert.Contains(t, sel, "?s2 <http://schema.org/geo> ?k1")
	assert.Contains(t, sel, "FILTER(STR(?s1) < STR(?s2))")

	q, err := sparql.ParseSelect(sel)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, q.Vars)
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "Book", localName("http://schema.org/Book"))
	assert.Equal(t, "label", localName("http://www.w3.org/2000/01/rdf-schema#label"))
	assert.Equal(t, "plain", localName("plain"))
}
