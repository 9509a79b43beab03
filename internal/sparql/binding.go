package sparql

import "github.com/bareyan/kg-explorer/internal/rdf"

// Binding is one result row of a selection query: a mapping from variable
// name (without the '?' sigil) to the bound term. A variable left unbound by
// the query simply has no entry.
type Binding map[string]rdf.Term

// Clone returns an independent copy of the binding.
func (b Binding) Clone() Binding {
	c := make(Binding, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
