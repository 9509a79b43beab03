package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/routine"
	"github.com/bareyan/kg-explorer/internal/sparql"
	"github.com/bareyan/kg-explorer/internal/store"
)

// runStep executes one step of a pass and reports its delta.
//
// Store-level failures abort the step and the run. A binding row that lacks
// a variable its template needs is skipped with a warning; one bad row must
// not block unrelated merges in the same batch.
func (e *Engine) runStep(ctx context.Context, step routine.Step, pass int, journal *runJournal) (StepReport, error) {
	switch s := step.(type) {
	case *routine.DirectRewrite:
		return e.runDirect(ctx, s, pass, journal)
	case *routine.TemplatedMerge:
		return e.runMerge(ctx, s, pass, journal)
	default:
		return StepReport{}, fmt.Errorf("unknown step type %T", step)
	}
}

func (e *Engine) runDirect(ctx context.Context, s *routine.DirectRewrite, pass int, journal *runJournal) (StepReport, error) {
	report := StepReport{Step: s.Name, Pass: pass}

	// Statements that changed the graph, rendered one per journal entry.
	// A later statement can still fail the step, and the changes already
	// applied must reach the journal even then.
	var applied []string

	for _, u := range s.Statements {
		removed, added, err := e.store.Apply(ctx, u)
		if err != nil {
			if jerr := recordUpdates(ctx, journal, applied); jerr != nil {
				return report, jerr
			}
			return report, fmt.Errorf("step %q: %w", s.Name, err)
		}
		if removed > 0 || added > 0 {
			applied = append(applied, u.String())
		}
		report.Deleted += removed
		report.Inserted += added
	}

	if report.Changed() {
		if s.Ref != "" {
			if err := journal.record(ctx, store.HistoryRoutine, s.Ref); err != nil {
				return report, err
			}
		} else if err := recordUpdates(ctx, journal, applied); err != nil {
			return report, err
		}
	}
	slog.Debug("direct rewrite applied",
		"step", s.Name, "pass", pass,
		"deleted", report.Deleted, "inserted", report.Inserted,
	)
	return report, nil
}

func (e *Engine) runMerge(ctx context.Context, s *routine.TemplatedMerge, pass int, journal *runJournal) (StepReport, error) {
	report := StepReport{Step: s.Name, Pass: pass}

	// Snapshot all rows before the first rewrite: rewrites from row i must
	// not change which rows were enumerated for the rest of the batch.
	rows, err := e.store.Select(ctx, s.Selection)
	if err != nil {
		return report, fmt.Errorf("step %q: enumerate: %w", s.Name, err)
	}
	rows = orientPairs(s.Selection.Vars, rows)
	report.Rows = len(rows)

	// Concrete rewrites that changed the graph, rendered for the journal.
	// Only flushed when a later row fails the step; a completed step is
	// journaled as a single entry instead.
	var applied []string

	for i, row := range rows {
		concrete, err := s.Instantiate(row)
		if err != nil {
			var unbound *routine.UnboundVariableError
			if errors.As(err, &unbound) {
				msg := fmt.Sprintf("step %q row %d skipped: %v", s.Name, i, err)
				report.Warnings = append(report.Warnings, msg)
				slog.Warn("binding row skipped", "step", s.Name, "pass", pass, "row", i, "error", err)
				continue
			}
			return report, fmt.Errorf("step %q row %d: %w", s.Name, i, err)
		}
		for _, u := range concrete {
			removed, added, err := e.store.Apply(ctx, u)
			if err != nil {
				if jerr := recordUpdates(ctx, journal, applied); jerr != nil {
					return report, jerr
				}
				return report, fmt.Errorf("step %q row %d: %w", s.Name, i, err)
			}
			if removed > 0 || added > 0 {
				applied = append(applied, u.String())
			}
			report.Deleted += removed
			report.Inserted += added
		}
	}

	if report.Changed() {
		if s.Ref != "" {
			if err := journal.record(ctx, store.HistoryRoutine, s.Ref); err != nil {
				return report, err
			}
		} else {
			statement := s.SelectionSource + "\n#\n" + s.TemplateSource
			if err := journal.record(ctx, store.HistoryAdvanced, statement); err != nil {
				return report, err
			}
		}
	}
	slog.Debug("templated merge applied",
		"step", s.Name, "pass", pass, "rows", report.Rows,
		"deleted", report.Deleted, "inserted", report.Inserted,
	)
	return report, nil
}

// recordUpdates journals each rendered update as its own entry, in applied
// order.
func recordUpdates(ctx context.Context, journal *runJournal, statements []string) error {
	for _, stmt := range statements {
		if err := journal.record(ctx, store.HistoryUpdate, stmt); err != nil {
			return err
		}
	}
	return nil
}

// orientPairs applies the canonical-survivor rule to duplicate-pair rows.
//
// When the selection projects exactly two variables, each row is treated as
// a duplicate pair: the term whose rendered form sorts first becomes the
// first variable (the survivor), the other the second (the duplicate). A
// reversed duplicate of the same pair therefore instantiates the identical
// rewrite, and a pair of identical terms is dropped outright.
//
// Selections with any other arity pass through untouched.
func orientPairs(vars []string, rows []sparql.Binding) []sparql.Binding {
	if len(vars) != 2 {
		return rows
	}
	survivor, duplicate := vars[0], vars[1]

	out := rows[:0]
	for _, row := range rows {
		a, aok := row[survivor]
		b, bok := row[duplicate]
		if !aok || !bok {
			out = append(out, row) // instantiation will warn about the gap
			continue
		}
		switch rdf.Compare(a, b) {
		case 0:
			continue // self-pair, nothing to merge
		case 1:
			row = row.Clone()
			row[survivor], row[duplicate] = b, a
		}
		out = append(out, row)
	}
	return out
}
