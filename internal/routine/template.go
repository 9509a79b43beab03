package routine

import (
	"github.com/bareyan/kg-explorer/internal/sparql"
)

// Instantiate renders the merge's rewrite template concrete for one binding
// row: every placeholder slot is replaced by the bound term, structurally,
// in the parsed pattern. A bound literal can therefore never be re-read as
// query syntax, whatever characters it contains.
//
// Returns an UnboundVariableError when the row lacks a variable the template
// references. Load-time validation guarantees the variable is projected, but
// optional matching can still leave it unbound for an individual row, so
// this is checked per row.
func (s *TemplatedMerge) Instantiate(row sparql.Binding) ([]*sparql.UpdateRequest, error) {
	out := make([]*sparql.UpdateRequest, 0, len(s.Template))
	for _, u := range s.Template {
		del, err := s.substitute(u.Delete, row)
		if err != nil {
			return nil, err
		}
		ins, err := s.substitute(u.Insert, row)
		if err != nil {
			return nil, err
		}
		concrete := &sparql.UpdateRequest{Delete: del, Insert: ins}
		if u.Where != nil {
			wherePatterns, err := s.substitute(u.Where.Patterns, row)
			if err != nil {
				return nil, err
			}
			concrete.Where = &sparql.GroupPattern{
				Patterns: wherePatterns,
				Binds:    u.Where.Binds,
				Filters:  u.Where.Filters,
			}
		}
		out = append(out, concrete)
	}
	return out, nil
}

func (s *TemplatedMerge) substitute(patterns []sparql.TriplePattern, row sparql.Binding) ([]sparql.TriplePattern, error) {
	if patterns == nil {
		return nil, nil
	}
	out := make([]sparql.TriplePattern, len(patterns))
	for i, tp := range patterns {
		sub, err := s.substituteSlot(tp.Subject, row)
		if err != nil {
			return nil, err
		}
		pred, err := s.substituteSlot(tp.Predicate, row)
		if err != nil {
			return nil, err
		}
		obj, err := s.substituteSlot(tp.Object, row)
		if err != nil {
			return nil, err
		}
		out[i] = sparql.TriplePattern{Subject: sub, Predicate: pred, Object: obj}
	}
	return out, nil
}

func (s *TemplatedMerge) substituteSlot(pt sparql.PatternTerm, row sparql.Binding) (sparql.PatternTerm, error) {
	ph, ok := pt.(sparql.Placeholder)
	if !ok {
		return pt, nil
	}
	term, ok := row[ph.Name]
	if !ok {
		return nil, &UnboundVariableError{Section: s.Name, Variable: ph.Name}
	}
	return sparql.Constant{Term: term}, nil
}
