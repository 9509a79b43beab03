package store

import (
	"context"
	"fmt"

	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/sparql"
)

// Apply executes one rewrite unit: solve the WHERE clause against the
// current graph, remove every triple the delete template produces, then add
// every triple the insert template produces. The unit is atomic - it runs
// under the writer lock and inside a single SQLite transaction, so on error
// the graph is unchanged.
//
// The WHERE clause is solved once, against the pre-rewrite graph; deletions
// performed by the unit cannot unmatch solutions of the same unit.
//
// A template triple whose pattern still contains an unbound variable for a
// given solution is skipped for that solution. A remaining placeholder is a
// contract violation and fails the unit.
func (s *TripleStore) Apply(ctx context.Context, u *sparql.UpdateRequest) (removed, added int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var solutions []sparql.Binding
	if u.Where != nil {
		solutions = s.solveGroup(u.Where)
	} else {
		solutions = []sparql.Binding{{}}
	}

	deletions := make(map[string]rdf.Triple)
	insertions := make(map[string]rdf.Triple)
	for _, sol := range solutions {
		if err := instantiateInto(deletions, u.Delete, sol); err != nil {
			return 0, 0, &StoreError{Op: "apply", Err: err}
		}
		if err := instantiateInto(insertions, u.Insert, sol); err != nil {
			return 0, 0, &StoreError{Op: "apply", Err: err}
		}
	}

	// Delete before insert: collect only what actually changes.
	var toRemove []rdf.Triple
	for key, t := range deletions {
		if _, ok := s.triples[key]; ok {
			toRemove = append(toRemove, t)
		}
	}
	var toAdd []rdf.Triple
	for key, t := range insertions {
		_, present := s.triples[key]
		_, deleted := deletions[key]
		if !present || deleted {
			toAdd = append(toAdd, t)
		}
	}

	if err := s.writeThrough(ctx, toRemove, toAdd); err != nil {
		return 0, 0, err
	}
	for _, t := range toRemove {
		s.unindex(t)
	}
	for _, t := range toAdd {
		s.index(t)
	}
	return len(toRemove), len(toAdd), nil
}

// instantiateInto renders template patterns concrete under a solution and
// accumulates the resulting triples.
func instantiateInto(dst map[string]rdf.Triple, patterns []sparql.TriplePattern, sol sparql.Binding) error {
	for _, tp := range patterns {
		var terms [3]rdf.Term
		skip := false
		for i, slot := range []sparql.PatternTerm{tp.Subject, tp.Predicate, tp.Object} {
			switch v := slot.(type) {
			case sparql.Constant:
				terms[i] = v.Term
			case sparql.Variable:
				t, ok := sol[v.Name]
				if !ok {
					skip = true
				}
				terms[i] = t
			case sparql.Placeholder:
				return fmt.Errorf("unresolved placeholder {{%s}} in rewrite template", v.Name)
			}
		}
		if skip {
			continue
		}
		t := rdf.Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]}
		dst[t.String()] = t
	}
	return nil
}
