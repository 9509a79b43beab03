package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bareyan/kg-explorer/internal/routine"
	"github.com/bareyan/kg-explorer/internal/sparql"
	"github.com/bareyan/kg-explorer/internal/store"
)

// Replayer re-executes a history journal against a store. Replay applies
// each journaled statement exactly once, in journal order, without fixpoint
// looping: the journal already records what the original run converged to.
type Replayer struct {
	engine      *Engine
	routinesDir string
}

// NewReplayer creates a Replayer. routinesDir is where file::section journal
// entries resolve their routine files.
func NewReplayer(s Store, routinesDir string) *Replayer {
	return &Replayer{
		engine:      New(s, WithFixpoint(false), WithOrphanPruning(false)),
		routinesDir: routinesDir,
	}
}

// Replay applies journal entries in order. A malformed entry aborts the
// replay: a journal that no longer parses means the store and the journal
// have diverged, and continuing would rebuild a different graph.
func (r *Replayer) Replay(ctx context.Context, entries []store.HistoryEntry) (*Report, error) {
	report := &Report{Routine: "replay", State: StateRunning, Passes: 1}
	journal := newRunJournal(nil, "replay")

	for i, entry := range entries {
		if entry.Kind == store.HistoryVersion {
			continue // snapshot markers carry no statement
		}
		step, err := r.entryStep(entry)
		if err != nil {
			report.State = StateFailed
			report.StateStr = report.State.String()
			return report, fmt.Errorf("history entry %d: %w", i, err)
		}
		sr, err := r.engine.runStep(ctx, step, 1, journal)
		if err != nil {
			report.State = StateFailed
			report.StateStr = report.State.String()
			return report, fmt.Errorf("history entry %d: %w", i, err)
		}
		report.addStep(sr)
	}

	report.State = StateConverged
	report.StateStr = report.State.String()
	return report, nil
}

// entryStep reconstructs the executable step a journal entry recorded.
func (r *Replayer) entryStep(entry store.HistoryEntry) (routine.Step, error) {
	switch entry.Kind {
	case store.HistoryUpdate:
		updates, err := sparql.ParseUpdates(entry.Statement)
		if err != nil {
			return nil, err
		}
		return &routine.DirectRewrite{
			Name:       "replayed update",
			Statements: updates,
			Source:     entry.Statement,
		}, nil

	case store.HistoryAdvanced:
		selSrc, tmplSrc, found := strings.Cut(entry.Statement, "\n#\n")
		if !found {
			return nil, fmt.Errorf("advanced entry is missing the '#' separator")
		}
		sel, err := sparql.ParseSelect(selSrc)
		if err != nil {
			return nil, err
		}
		tmpl, err := sparql.ParseUpdates(tmplSrc)
		if err != nil {
			return nil, err
		}
		return &routine.TemplatedMerge{
			Name:            "replayed merge",
			Selection:       sel,
			Template:        tmpl,
			SelectionSource: selSrc,
			TemplateSource:  tmplSrc,
		}, nil

	case store.HistoryRoutine:
		file, section, found := strings.Cut(entry.Statement, "::")
		if !found {
			return nil, fmt.Errorf("routine entry %q is not of the form file::section", entry.Statement)
		}
		rf, err := routine.LoadPath(filepath.Join(r.routinesDir, file))
		if err != nil {
			return nil, err
		}
		step := rf.Step(section)
		if step == nil {
			return nil, fmt.Errorf("routine %q has no section %q", file, section)
		}
		return step, nil

	default:
		return nil, fmt.Errorf("unknown history kind %q", entry.Kind)
	}
}
