package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePlanBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		plan: "books": {
			dataset:    "library.nt"
			fixpoint:   true
			max_passes: 5
			merge: [
				{
					type: "http://schema.org/Book"
					keys: ["http://schema.org/isbn"]
				},
				{
					type: "http://schema.org/Person"
					keys: ["http://schema.org/name", "http://schema.org/birthDate"]
				},
			]
		}
	`)

	require.NoError(t, v.Err())
	p, err := CompilePlan(v.LookupPath(cue.ParsePath(`plan."books"`)))

	require.NoError(t, err)
	assert.Equal(t, "books", p.Name)
	assert.Equal(t, "library.nt", p.Dataset)
	assert.True(t, p.Fixpoint)
	assert.Equal(t, 5, p.MaxPasses)
	require.Len(t, p.Merges, 2)
	assert.Equal(t, "http://schema.org/Book", p.Merges[0].Type)
	assert.Equal(t, []string{"http://schema.org/isbn"}, p.Merges[0].Keys)
	assert.Equal(t, []string{"http://schema.org/name", "http://schema.org/birthDate"}, p.Merges[1].Keys)
}

func TestCompilePlanDefaults(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		plan: "minimal": {
			merge: [{type: "http://schema.org/Place", keys: ["http://schema.org/name"]}]
		}
	`)

	require.NoError(t, v.Err())
	p, err := CompilePlan(v.LookupPath(cue.ParsePath(`plan."minimal"`)))

	require.NoError(t, err)
	assert.True(t, p.Fixpoint, "fixpoint defaults to on")
	assert.Zero(t, p.MaxPasses, "zero means engine default")
	assert.Empty(t, p.Dataset)
	assert.Empty(t, p.Routines)
}

func TestCompilePlanRoutinesOnly(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		plan: "manual": {
			routines: ["cleanup.rt", "dedup.rt"]
		}
	`)

	require.NoError(t, v.Err())
	p, err := CompilePlan(v.LookupPath(cue.ParsePath(`plan."manual"`)))

	require.NoError(t, err)
	assert.Equal(t, []string{"cleanup.rt", "dedup.rt"}, p.Routines)
	assert.Empty(t, p.Merges)
}

func TestCompilePlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "empty plan",
			src:     `plan: "p": {dataset: "x.nt"}`,
			wantErr: "no merge rules and no routines",
		},
		{
			name:    "missing type",
			src:     `plan: "p": {merge: [{keys: ["http://schema.org/name"]}]}`,
			wantErr: "type is required",
		},
		{
			name:    "missing keys",
			src:     `plan: "p": {merge: [{type: "http://schema.org/Book"}]}`,
			wantErr: "keys is required",
		},
		{
			name:    "empty keys",
			src:     `plan: "p": {merge: [{type: "http://schema.org/Book", keys: []}]}`,
			wantErr: "at least one key",
		},
		{
			name:    "invalid type IRI",
			src:     `plan: "p": {merge: [{type: "not an iri", keys: ["http://schema.org/name"]}]}`,
			wantErr: "invalid IRI",
		},
		{
			name:    "invalid key IRI",
			src:     `plan: "p": {merge: [{type: "http://schema.org/Book", keys: ["has space"]}]}`,
			wantErr: "invalid IRI",
		},
		{
			name:    "zero max_passes",
			src:     `plan: "p": {max_passes: 0, merge: [{type: "http://schema.org/Book", keys: ["http://schema.org/isbn"]}]}`,
			wantErr: "at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := cuecontext.New()
			v := ctx.CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompilePlan(v.LookupPath(cue.ParsePath(`plan."p"`)))
			require.Error(t, err)

			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Message, tt.wantErr)
		})
	}
}

func TestLoadPlans(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.cue")
	src := `
plan: "books": {
	merge: [{type: "http://schema.org/Book", keys: ["http://schema.org/isbn"]}]
}
plan: "places": {
	merge: [{type: "http://schema.org/Place", keys: ["http://schema.org/name"]}]
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	plans, err := LoadPlans(path)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "books", plans[0].Name)
	assert.Equal(t, "places", plans[1].Name)
}

func TestLoadPlansNoPlanStruct(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.cue")
	require.NoError(t, os.WriteFile(path, []byte(`other: 42`), 0o644))

	_, err := LoadPlans(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no plan struct")
}
