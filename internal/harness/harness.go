package harness

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/bareyan/kg-explorer/internal/compiler"
	"github.com/bareyan/kg-explorer/internal/engine"
	"github.com/bareyan/kg-explorer/internal/routine"
	"github.com/bareyan/kg-explorer/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Report is the engine's execution record.
	Report *engine.Report `json:"report"`

	// Graph is the final graph as sorted N-Triples.
	Graph string `json:"graph"`

	// Errors lists expectation mismatches. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// Run executes a scenario against a fresh in-memory store. Extra engine
// options are applied after the scenario's own, so tests can pin the run ID
// generator.
//
// A non-nil error means the scenario could not be executed at all;
// expectation mismatches are reported through Result.Errors instead.
func Run(ctx context.Context, scenario *Scenario, opts ...engine.Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if _, err := st.Load(ctx, strings.NewReader(scenario.Dataset)); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	rf, engOpts, err := scenarioRoutine(scenario)
	if err != nil {
		return nil, err
	}
	engOpts = append(engOpts, opts...)

	eng := engine.New(st, engOpts...)
	report, err := eng.Run(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", rf.Name, err)
	}

	var dump bytes.Buffer
	if err := st.DumpTo(&dump); err != nil {
		return nil, fmt.Errorf("dump graph: %w", err)
	}

	result := &Result{Report: report, Graph: dump.String()}
	result.Errors = checkExpect(&scenario.Expect, result)
	result.Pass = len(result.Errors) == 0
	return result, nil
}

// scenarioRoutine builds the executable routine and engine options a
// scenario declares.
// Scenario options are appended last so they override plan settings.
func scenarioRoutine(scenario *Scenario) (*routine.RoutineFile, []engine.Option, error) {
	var engOpts []engine.Option
	scenarioOpts := func() []engine.Option {
		if scenario.Options.MaxPasses > 0 {
			engOpts = append(engOpts, engine.WithMaxPasses(scenario.Options.MaxPasses))
		}
		if scenario.Options.Fixpoint != nil {
			engOpts = append(engOpts, engine.WithFixpoint(*scenario.Options.Fixpoint))
		}
		if scenario.Options.Prune != nil {
			engOpts = append(engOpts, engine.WithOrphanPruning(*scenario.Options.Prune))
		}
		return engOpts
	}

	if scenario.Routine != "" {
		rf, err := routine.Load(scenario.Name, scenario.Routine)
		if err != nil {
			return nil, nil, fmt.Errorf("load routine: %w", err)
		}
		return rf, scenarioOpts(), nil
	}

	plans, err := compiler.ParsePlans([]byte(scenario.Plan), scenario.Name+".cue")
	if err != nil {
		return nil, nil, fmt.Errorf("compile plan: %w", err)
	}
	if len(plans) != 1 {
		return nil, nil, fmt.Errorf("scenario plan must hold exactly one entry, got %d", len(plans))
	}
	plan := plans[0]
	if len(plan.Routines) > 0 || plan.Dataset != "" {
		return nil, nil, fmt.Errorf("scenario plans must be self-contained: no dataset or routine file references")
	}

	rf, err := compiler.Generate(plan)
	if err != nil {
		return nil, nil, fmt.Errorf("generate plan: %w", err)
	}
	engOpts = append(engOpts, engine.WithFixpoint(plan.Fixpoint))
	if plan.MaxPasses > 0 {
		engOpts = append(engOpts, engine.WithMaxPasses(plan.MaxPasses))
	}
	return rf, scenarioOpts(), nil
}
