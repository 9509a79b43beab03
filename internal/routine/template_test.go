package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/sparql"
)

func loadMerge(t *testing.T, src string) *TemplatedMerge {
	t.Helper()
	rf, err := Load("t", src)
	require.NoError(t, err)
	merge, ok := rf.Steps[0].(*TemplatedMerge)
	require.True(t, ok)
	return merge
}

func TestInstantiate(t *testing.T) {
	merge := loadMerge(t, `### t

## merge pairs @advanced
SELECT ?s1 ?s2 WHERE {
  ?s1 <http://example.org/k> ?k .
  ?s2 <http://example.org/k> ?k .
  FILTER(STR(?s1) < STR(?s2))
}
#
DELETE { ?ref ?p {{s2}} }
INSERT { ?ref ?p {{s1}} }
WHERE { ?ref ?p {{s2}} } ;
DELETE { {{s2}} ?p ?o }
INSERT { {{s1}} ?p ?o }
WHERE { {{s2}} ?p ?o }
`)

	row := sparql.Binding{
		"s1": rdf.IRI("http://example.org/a"),
		"s2": rdf.IRI("http://example.org/b"),
	}
	updates, err := merge.Instantiate(row)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	// First statement: placeholders sat in the object slot.
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/b")}, updates[0].Delete[0].Object)
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/a")}, updates[0].Insert[0].Object)
	assert.Equal(t, sparql.Variable{Name: "ref"}, updates[0].Delete[0].Subject, "variables pass through untouched")

	// Second statement: placeholders sat in the subject slot.
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/b")}, updates[1].Delete[0].Subject)
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/a")}, updates[1].Insert[0].Subject)
	require.NotNil(t, updates[1].Where)
	assert.Equal(t, sparql.Constant{Term: rdf.IRI("http://example.org/b")}, updates[1].Where.Patterns[0].Subject)

	// The parsed template itself is untouched and reusable.
	assert.IsType(t, sparql.Placeholder{}, merge.Template[1].Delete[0].Subject)
}

func TestInstantiateUnboundRow(t *testing.T) {
	merge := loadMerge(t, `### t

## m @advanced
SELECT ?s1 ?s2 WHERE { ?s1 <http://example.org/k> ?s2 }
#
DELETE { {{s2}} ?p ?o }
WHERE { {{s2}} ?p ?o }
`)

	_, err := merge.Instantiate(sparql.Binding{"s1": rdf.IRI("http://example.org/a")})
	require.Error(t, err)

	var uerr *UnboundVariableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "m", uerr.Section)
	assert.Equal(t, "s2", uerr.Variable)
}

func TestInstantiateLiteralIsNeverReparsed(t *testing.T) {
	merge := loadMerge(t, `### t

## m @advanced
SELECT ?v WHERE { ?s <http://example.org/p> ?v }
#
INSERT { <http://example.org/a> <http://example.org/q> {{v}} }
`)

	hostile := rdf.NewLiteral("\" . <urn:x> <urn:y> \"pwn")
	updates, err := merge.Instantiate(sparql.Binding{"v": hostile})
	require.NoError(t, err)
	require.Len(t, updates, 1)

	// Substitution is structural: the literal lands in the pattern as a
	// constant term, quotes and all.
	assert.Equal(t, sparql.Constant{Term: hostile}, updates[0].Insert[0].Object)
}
