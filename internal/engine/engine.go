package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bareyan/kg-explorer/internal/routine"
	"github.com/bareyan/kg-explorer/internal/sparql"
	"github.com/bareyan/kg-explorer/internal/store"
)

// Store is the narrow contract the engine needs from the triple store.
// Implemented by *store.TripleStore; tests may substitute fakes.
//
// Select must return rows in a deterministic order for identical graph
// content. Apply must be atomic: the whole delete+insert unit is reflected
// in the store, or on error none of it is.
type Store interface {
	Select(ctx context.Context, q *sparql.SelectQuery) ([]sparql.Binding, error)
	Apply(ctx context.Context, u *sparql.UpdateRequest) (removed, added int, err error)
}

// Journal records applied statements for later replay. Implemented by
// *store.TripleStore. A nil journal disables history recording.
type Journal interface {
	AppendHistory(ctx context.Context, e store.HistoryEntry) error
}

// RunIDGenerator produces identifiers for routine runs. The default is
// UUIDv7; tests substitute a fixed sequence for reproducible reports.
type RunIDGenerator interface {
	NewRunID() string
}

// UUIDv7Generator generates time-ordered UUID run identifiers.
type UUIDv7Generator struct{}

func (UUIDv7Generator) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// DefaultMaxPasses caps fixed-point iteration. Cascading merges terminate
// quickly on real datasets; a run that needs more passes than this is
// reported as non-convergent rather than looping further.
const DefaultMaxPasses = 10

// Engine executes routine files against a store, sequentially and
// deterministically.
type Engine struct {
	store    Store
	journal  Journal
	ids      RunIDGenerator
	maxPass  int
	fixpoint bool
	prune    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPasses sets the fixed-point iteration cap.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPass = n
		}
	}
}

// WithFixpoint enables or disables repeating merge and prune steps until a
// pass produces zero changes. Disabled, the engine runs a single pass.
func WithFixpoint(on bool) Option {
	return func(e *Engine) { e.fixpoint = on }
}

// WithOrphanPruning enables or disables the orphan pruning pass that runs
// after the merge steps of each pass.
func WithOrphanPruning(on bool) Option {
	return func(e *Engine) { e.prune = on }
}

// WithJournal sets the history journal. Pass nil to disable recording.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithRunIDs overrides the run identifier generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// New creates an Engine over the given store. Fixpoint iteration and orphan
// pruning are on by default.
func New(s Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		ids:      UUIDv7Generator{},
		maxPass:  DefaultMaxPasses,
		fixpoint: true,
		prune:    true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a routine file: all steps once, in declaration order, then -
// when fixpoint mode is on - merge steps plus the pruning pass again until a
// pass changes nothing or the cap is hit.
//
// The returned Report is non-nil even on failure and records everything
// executed up to the error. The error is non-nil only for the Failed state;
// CappedOut surfaces as a NonConvergenceWarning inside the report.
func (e *Engine) Run(ctx context.Context, rf *routine.RoutineFile) (*Report, error) {
	runID := e.ids.NewRunID()
	report := &Report{RunID: runID, Routine: rf.Name, State: StateRunning}
	journal := newRunJournal(e.journal, runID)

	slog.Info("routine run starting",
		"run_id", runID,
		"routine", rf.Name,
		"steps", len(rf.Steps),
		"fixpoint", e.fixpoint,
	)

	fail := func(err error) (*Report, error) {
		report.State = StateFailed
		report.StateStr = report.State.String()
		return report, err
	}

	// Pass 1: every step, declaration order.
	report.Passes = 1
	changed := false
	for _, step := range rf.Steps {
		sr, err := e.runStep(ctx, step, 1, journal)
		if err != nil {
			return fail(err)
		}
		report.addStep(sr)
		changed = changed || sr.Changed()
	}
	if e.prune {
		sr, err := e.runPrune(ctx, 1, journal)
		if err != nil {
			return fail(err)
		}
		report.addStep(sr)
		changed = changed || sr.Changed()
	}

	// Follow-on passes repeat only the merge subset plus pruning: a direct
	// rewrite's own delete clause makes re-running it a no-op, so only
	// merges and prunes can cascade.
	if e.fixpoint {
		for pass := 2; changed && pass <= e.maxPass; pass++ {
			report.Passes = pass
			changed = false
			for _, step := range rf.Steps {
				merge, ok := step.(*routine.TemplatedMerge)
				if !ok {
					continue
				}
				sr, err := e.runStep(ctx, merge, pass, journal)
				if err != nil {
					return fail(err)
				}
				report.addStep(sr)
				changed = changed || sr.Changed()
			}
			if e.prune {
				sr, err := e.runPrune(ctx, pass, journal)
				if err != nil {
					return fail(err)
				}
				report.addStep(sr)
				changed = changed || sr.Changed()
			}
		}
	}

	if changed && e.fixpoint {
		report.State = StateCappedOut
		warning, err := e.remainingWork(ctx, rf)
		if err != nil {
			return fail(err)
		}
		warning.Passes = report.Passes
		report.Warnings = append(report.Warnings, warning.Error())
		slog.Warn("routine run capped out",
			"run_id", runID,
			"passes", report.Passes,
			"remaining_duplicates", warning.RemainingDuplicates,
			"remaining_orphans", warning.RemainingOrphans,
		)
	} else {
		report.State = StateConverged
		slog.Info("routine run converged",
			"run_id", runID,
			"passes", report.Passes,
			"deleted", report.Deleted,
			"inserted", report.Inserted,
		)
	}
	report.StateStr = report.State.String()
	return report, nil
}

// remainingWork counts the duplicate pairs and orphans left behind by a
// capped-out run, for the non-convergence warning.
func (e *Engine) remainingWork(ctx context.Context, rf *routine.RoutineFile) (*NonConvergenceWarning, error) {
	w := &NonConvergenceWarning{}
	for _, step := range rf.Steps {
		merge, ok := step.(*routine.TemplatedMerge)
		if !ok {
			continue
		}
		rows, err := e.store.Select(ctx, merge.Selection)
		if err != nil {
			return nil, fmt.Errorf("count remaining duplicates for %q: %w", merge.Name, err)
		}
		w.RemainingDuplicates += len(rows)
	}
	orphans, err := e.findOrphans(ctx)
	if err != nil {
		return nil, err
	}
	w.RemainingOrphans = len(orphans)
	return w, nil
}

// runJournal stamps history entries with the run ID and a per-run sequence.
type runJournal struct {
	journal Journal
	runID   string
	seq     int64
}

func newRunJournal(j Journal, runID string) *runJournal {
	return &runJournal{journal: j, runID: runID}
}

func (j *runJournal) record(ctx context.Context, kind, statement string) error {
	if j.journal == nil {
		return nil
	}
	j.seq++
	err := j.journal.AppendHistory(ctx, store.HistoryEntry{
		RunID:     j.runID,
		Seq:       j.seq,
		Kind:      kind,
		Statement: statement,
	})
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}
