package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/sparql"
	"github.com/bareyan/kg-explorer/internal/store"
)

// PruneStepName labels the built-in pruning pass in execution reports.
const PruneStepName = "prune orphans"

// runPrune removes every orphan entity: an entity whose only remaining
// triples are type assertions and that nothing else references. Merges move
// an entity's informative triples to its survivor, leaving exactly this
// shape behind, so pruning runs after the merge steps of each pass and its
// deletions count toward convergence.
func (e *Engine) runPrune(ctx context.Context, pass int, journal *runJournal) (StepReport, error) {
	report := StepReport{Step: PruneStepName, Pass: pass}

	orphans, err := e.findOrphans(ctx)
	if err != nil {
		return report, err
	}
	report.Rows = len(orphans)

	var statements []string
	for _, entity := range orphans {
		removed, _, err := e.store.Apply(ctx, deleteAllOutgoing(entity))
		if err != nil {
			return report, fmt.Errorf("prune %s: %w", entity, err)
		}
		report.Deleted += removed
		if removed > 0 {
			statements = append(statements,
				fmt.Sprintf("DELETE { %s ?p ?o }\nWHERE { %s ?p ?o }", entity, entity))
		}
	}

	// Prune removals go into the journal as plain updates so a replay
	// rebuilds the same graph without rerunning orphan detection.
	if len(statements) > 0 {
		if err := journal.record(ctx, store.HistoryUpdate, strings.Join(statements, " ;\n")); err != nil {
			return report, err
		}
	}

	slog.Debug("orphans pruned", "pass", pass, "entities", len(orphans), "deleted", report.Deleted)
	return report, nil
}

// findOrphans enumerates typed subjects and keeps those with no informative
// outgoing triples and no incoming references. Candidates arrive in the
// store's deterministic order, so pruning order is reproducible too.
func (e *Engine) findOrphans(ctx context.Context) ([]rdf.Term, error) {
	candidates, err := e.store.Select(ctx, typedSubjectsQuery())
	if err != nil {
		return nil, fmt.Errorf("prune: enumerate typed subjects: %w", err)
	}

	var orphans []rdf.Term
	for _, row := range candidates {
		entity, ok := row["s"]
		if !ok {
			continue
		}
		if _, isIRI := entity.(rdf.IRI); !isIRI {
			continue
		}
		orphan, err := e.isOrphan(ctx, entity)
		if err != nil {
			return nil, err
		}
		if orphan {
			orphans = append(orphans, entity)
		}
	}
	return orphans, nil
}

func (e *Engine) isOrphan(ctx context.Context, entity rdf.Term) (bool, error) {
	outgoing, err := e.store.Select(ctx, outgoingQuery(entity))
	if err != nil {
		return false, fmt.Errorf("prune: outgoing of %s: %w", entity, err)
	}
	for _, row := range outgoing {
		if p, ok := row["p"]; ok && !rdf.Equal(p, rdf.RDFType) {
			return false, nil
		}
	}

	incoming, err := e.store.Select(ctx, incomingQuery(entity))
	if err != nil {
		return false, fmt.Errorf("prune: incoming of %s: %w", entity, err)
	}
	return len(incoming) == 0, nil
}

// The prune queries are built as IR directly; there is no routine text to
// parse for the built-in pass.

func typedSubjectsQuery() *sparql.SelectQuery {
	return &sparql.SelectQuery{
		Vars:     []string{"s"},
		Distinct: true,
		Where: sparql.GroupPattern{Patterns: []sparql.TriplePattern{{
			Subject:   sparql.Variable{Name: "s"},
			Predicate: sparql.Constant{Term: rdf.RDFType},
			Object:    sparql.Variable{Name: "t"},
		}}},
	}
}

func outgoingQuery(entity rdf.Term) *sparql.SelectQuery {
	return &sparql.SelectQuery{
		Vars: []string{"p", "o"},
		Where: sparql.GroupPattern{Patterns: []sparql.TriplePattern{{
			Subject:   sparql.Constant{Term: entity},
			Predicate: sparql.Variable{Name: "p"},
			Object:    sparql.Variable{Name: "o"},
		}}},
	}
}

func incomingQuery(entity rdf.Term) *sparql.SelectQuery {
	return &sparql.SelectQuery{
		Vars: []string{"x", "q"},
		Where: sparql.GroupPattern{Patterns: []sparql.TriplePattern{{
			Subject:   sparql.Variable{Name: "x"},
			Predicate: sparql.Variable{Name: "q"},
			Object:    sparql.Constant{Term: entity},
		}}},
	}
}

// deleteAllOutgoing builds the rewrite unit that erases an orphan.
func deleteAllOutgoing(entity rdf.Term) *sparql.UpdateRequest {
	pattern := sparql.TriplePattern{
		Subject:   sparql.Constant{Term: entity},
		Predicate: sparql.Variable{Name: "p"},
		Object:    sparql.Variable{Name: "o"},
	}
	return &sparql.UpdateRequest{
		Delete: []sparql.TriplePattern{pattern},
		Where:  &sparql.GroupPattern{Patterns: []sparql.TriplePattern{pattern}},
	}
}
