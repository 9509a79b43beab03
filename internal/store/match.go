package store

import (
	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/sparql"
)

// solveGroup evaluates a group pattern against the current graph and returns
// all solutions. Triple patterns join on shared variables, BIND assignments
// run in written order, then FILTER constraints discard rows. An expression
// error in a BIND leaves the target unbound; an error in a FILTER discards
// the row.
//
// Caller holds at least the read lock.
func (s *TripleStore) solveGroup(g *sparql.GroupPattern) []sparql.Binding {
	rows := []sparql.Binding{{}}

	for _, tp := range g.Patterns {
		var next []sparql.Binding
		for _, row := range rows {
			for _, t := range s.matchPattern(tp, row) {
				if extended, ok := extend(row, tp, t); ok {
					next = append(next, extended)
				}
			}
		}
		rows = next
		if len(rows) == 0 {
			return nil
		}
	}

	for _, b := range g.Binds {
		for i, row := range rows {
			val, err := evalExpr(b.Expr, row)
			if err != nil {
				continue // target stays unbound for this row
			}
			row = row.Clone()
			row[b.Var] = val
			rows[i] = row
		}
	}

	for _, f := range g.Filters {
		var kept []sparql.Binding
		for _, row := range rows {
			if ok, err := evalBool(f, row); err == nil && ok {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	return rows
}

// matchPattern returns the triples matching a pattern under the given
// partial binding, scanning the smallest applicable index.
func (s *TripleStore) matchPattern(tp sparql.TriplePattern, b sparql.Binding) []rdf.Triple {
	sub := resolveSlot(tp.Subject, b)
	pred := resolveSlot(tp.Predicate, b)
	obj := resolveSlot(tp.Object, b)

	keys := s.candidateKeys(sub, pred, obj)

	var out []rdf.Triple
	for _, key := range keys {
		t, ok := s.triples[key]
		if !ok {
			continue
		}
		if sub != nil && !rdf.Equal(t.Subject, sub) {
			continue
		}
		if pred != nil && !rdf.Equal(t.Predicate, pred) {
			continue
		}
		if obj != nil && !rdf.Equal(t.Object, obj) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// candidateKeys picks the cheapest index for the bound slots; with nothing
// bound it falls back to the full set.
func (s *TripleStore) candidateKeys(sub, pred, obj rdf.Term) []string {
	var best map[string]struct{}
	bestSize := -1
	consider := func(set map[string]struct{}, bound bool) {
		if !bound {
			return
		}
		if bestSize == -1 || len(set) < bestSize {
			best = set
			bestSize = len(set)
		}
	}
	if sub != nil {
		consider(s.bySubject[sub.String()], true)
	}
	if pred != nil {
		consider(s.byPredicate[pred.String()], true)
	}
	if obj != nil {
		consider(s.byObject[obj.String()], true)
	}

	if bestSize >= 0 {
		keys := make([]string, 0, len(best))
		for k := range best {
			keys = append(keys, k)
		}
		return keys
	}
	keys := make([]string, 0, len(s.triples))
	for k := range s.triples {
		keys = append(keys, k)
	}
	return keys
}

// resolveSlot returns the concrete term a slot requires, or nil when the
// slot is a free variable. Placeholders never reach the store: the routine
// instantiator replaces them before Apply or Select is called.
func resolveSlot(pt sparql.PatternTerm, b sparql.Binding) rdf.Term {
	switch v := pt.(type) {
	case sparql.Constant:
		return v.Term
	case sparql.Variable:
		if t, ok := b[v.Name]; ok {
			return t
		}
		return nil
	default:
		return nil
	}
}

// extend binds the pattern's free variables to the matched triple's terms.
// Returns false when the same variable would need two different terms.
func extend(row sparql.Binding, tp sparql.TriplePattern, t rdf.Triple) (sparql.Binding, bool) {
	out := row
	cloned := false
	bind := func(pt sparql.PatternTerm, term rdf.Term) bool {
		v, ok := pt.(sparql.Variable)
		if !ok {
			return true
		}
		if existing, ok := out[v.Name]; ok {
			return rdf.Equal(existing, term)
		}
		if !cloned {
			out = out.Clone()
			cloned = true
		}
		out[v.Name] = term
		return true
	}
	if !bind(tp.Subject, t.Subject) || !bind(tp.Predicate, t.Predicate) || !bind(tp.Object, t.Object) {
		return nil, false
	}
	return out, true
}
