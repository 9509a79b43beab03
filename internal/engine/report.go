package engine

import "fmt"

// RunState is the terminal (or in-flight) state of a routine run.
type RunState int

const (
	// StateIdle means the run has not started.
	StateIdle RunState = iota

	// StateRunning means a pass is in progress.
	StateRunning

	// StateConverged means a full pass produced zero changes.
	StateConverged

	// StateCappedOut means the pass cap was reached while passes were still
	// producing changes. Terminal success: reported, not fatal.
	StateCappedOut

	// StateFailed means a step hit an unrecoverable error.
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateConverged:
		return "converged"
	case StateCappedOut:
		return "capped-out"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// StepReport is the execution record of one step in one pass.
type StepReport struct {
	Step     string   `json:"step"`
	Pass     int      `json:"pass"`
	Rows     int      `json:"rows"` // binding rows processed; 0 for direct rewrites
	Deleted  int      `json:"deleted"`
	Inserted int      `json:"inserted"`
	Warnings []string `json:"warnings,omitempty"`
}

// Changed reports whether the step touched the graph.
func (r StepReport) Changed() bool { return r.Deleted > 0 || r.Inserted > 0 }

// Report is the execution record of a whole routine run.
type Report struct {
	RunID    string       `json:"run_id"`
	Routine  string       `json:"routine"`
	State    RunState     `json:"-"`
	StateStr string       `json:"state"`
	Passes   int          `json:"passes"`
	Deleted  int          `json:"deleted"`
	Inserted int          `json:"inserted"`
	Steps    []StepReport `json:"steps"`
	Warnings []string     `json:"warnings,omitempty"`
}

func (r *Report) addStep(sr StepReport) {
	r.Steps = append(r.Steps, sr)
	r.Deleted += sr.Deleted
	r.Inserted += sr.Inserted
	r.Warnings = append(r.Warnings, sr.Warnings...)
}

// NonConvergenceWarning reports that merge and prune passes were still
// producing changes when the pass cap was hit. It carries the counts of
// remaining work so an operator can judge whether to rerun with a higher
// cap: duplicate pairs the merge selections still enumerate, and entities
// the pruning pass would still remove.
type NonConvergenceWarning struct {
	Passes              int
	RemainingDuplicates int
	RemainingOrphans    int
}

func (w *NonConvergenceWarning) Error() string {
	return fmt.Sprintf(
		"no convergence after %d passes: %d duplicate pairs and %d orphans remain",
		w.Passes, w.RemainingDuplicates, w.RemainingOrphans)
}
