package store

import (
	"context"
	"sort"
	"strings"

	"github.com/bareyan/kg-explorer/internal/sparql"
)

// Select evaluates a selection query and returns its binding rows projected
// to the query's variables.
//
// Row order is deterministic for identical graph content: rows sort by
// ordinal comparison of the rendered forms of the projected terms, in
// projection order. This is what makes canonical-survivor selection
// repeatable across runs.
func (s *TripleStore) Select(ctx context.Context, q *sparql.SelectQuery) ([]sparql.Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "select", Err: err}
	}

	s.mu.RLock()
	solutions := s.solveGroup(&q.Where)
	s.mu.RUnlock()

	rows := make([]sparql.Binding, 0, len(solutions))
	for _, sol := range solutions {
		row := make(sparql.Binding, len(q.Vars))
		for _, v := range q.Vars {
			if t, ok := sol[v]; ok {
				row[v] = t
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rowKey(rows[i], q.Vars) < rowKey(rows[j], q.Vars)
	})

	if q.Distinct {
		var deduped []sparql.Binding
		last := ""
		for i, row := range rows {
			key := rowKey(row, q.Vars)
			if i == 0 || key != last {
				deduped = append(deduped, row)
				last = key
			}
		}
		rows = deduped
	}

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[q.Offset:]
		}
	}
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// rowKey is the stable sort key of a row: the projected terms' rendered
// forms joined by a separator that sorts below any term character.
func rowKey(row sparql.Binding, vars []string) string {
	var sb strings.Builder
	for _, v := range vars {
		if t, ok := row[v]; ok {
			sb.WriteString(t.String())
		}
		sb.WriteByte(0)
	}
	return sb.String()
}
