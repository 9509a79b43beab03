package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bareyan/kg-explorer/internal/compiler"
	"github.com/bareyan/kg-explorer/internal/engine"
	"github.com/bareyan/kg-explorer/internal/routine"
	"github.com/bareyan/kg-explorer/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database   string
	Section    string
	MaxPasses  int
	NoFixpoint bool
	NoPrune    bool
	Versions   string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <routine.rt | plan.cue>",
		Short: "Run a cleanup routine or plan against the store",
		Long: `Run a routine file or a CUE cleanup plan against the store.

Routine files hold named sections of update statements; sections tagged
@advanced pair a selection query with a rewrite template. CUE plans declare
entity-merge rules that compile into generated merge sections.

Merge sections repeat until a full pass changes nothing or the pass cap is
reached; orphaned entities are pruned after each pass. Every executed section
is journaled so the run can be replayed.

Example:
  kgx run --db graph.db cleanup.rt
  kgx run --db graph.db cleanup.rt --section "merge books"
  kgx run --db graph.db --versions ./versions plan.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to store database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Section, "section", "", "run a single section by name")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "pass cap for the fixed-point driver (0 = default)")
	cmd.Flags().BoolVar(&opts.NoFixpoint, "no-fixpoint", false, "run a single pass instead of iterating to a fixed point")
	cmd.Flags().BoolVar(&opts.NoPrune, "no-prune", false, "skip orphan pruning after each pass")
	cmd.Flags().StringVar(&opts.Versions, "versions", "", "dump a version snapshot to this directory before running")

	return cmd
}

func runRoutine(opts *RunOptions, path string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore(st)

	rf, engOpts, err := resolveRunInput(cmd.Context(), opts, path, st)
	if err != nil {
		return err
	}

	if opts.Section != "" {
		step := rf.Step(opts.Section)
		if step == nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("no section %q in %s", opts.Section, rf.Name), nil)
		}
		rf = &routine.RoutineFile{Name: rf.Name, Title: rf.Title, Steps: []routine.Step{step}}
	}

	if opts.Versions != "" {
		version, err := st.DumpVersion(cmd.Context(), opts.Versions)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to dump version snapshot", err)
		}
		slog.Info("version snapshot written", "version", version, "dir", opts.Versions)
	}

	ctx, cancel := signal.NotifyContext(parentContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng := engine.New(st, engOpts...)
	report, err := eng.Run(ctx, rf)
	if err != nil {
		return WrapExitError(ExitFailure, "run failed", err)
	}

	return writeReport(opts.RootOptions, cmd, report)
}

// resolveRunInput turns the argument into a routine file plus engine
// options. A .cue argument is compiled as a plan: its routine files load
// relative to the plan, generated merge steps follow them, and the plan's
// tuning knobs seed the options. Flags override plan settings.
func resolveRunInput(ctx context.Context, opts *RunOptions, path string, st *store.TripleStore) (*routine.RoutineFile, []engine.Option, error) {
	var engOpts []engine.Option

	if strings.HasSuffix(path, ".cue") {
		plans, err := compiler.LoadPlans(path)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to compile plan", err)
		}
		if len(plans) > 1 {
			return nil, nil, WrapExitError(ExitCommandError,
				fmt.Sprintf("%s holds %d plans; run expects exactly one", path, len(plans)), nil)
		}
		plan := plans[0]
		baseDir := filepath.Dir(path)

		if plan.Dataset != "" && st.Count() == 0 {
			f, err := os.Open(filepath.Join(baseDir, plan.Dataset))
			if err != nil {
				return nil, nil, WrapExitError(ExitCommandError, "failed to open plan dataset", err)
			}
			added, loadErr := st.Load(ctx, f)
			f.Close()
			if loadErr != nil {
				return nil, nil, WrapExitError(ExitFailure, "failed to load plan dataset", loadErr)
			}
			slog.Info("plan dataset loaded", "path", plan.Dataset, "added", added)
		}

		rf, err := compiler.Generate(plan)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to generate merge steps", err)
		}

		// Routine files named by the plan run before the generated merges.
		var steps []routine.Step
		for _, rel := range plan.Routines {
			loaded, err := routine.LoadPath(filepath.Join(baseDir, rel))
			if err != nil {
				return nil, nil, WrapExitError(ExitCommandError, "failed to load plan routine", err)
			}
			steps = append(steps, loaded.Steps...)
		}
		rf.Steps = append(steps, rf.Steps...)

		engOpts = append(engOpts, engine.WithFixpoint(plan.Fixpoint), engine.WithJournal(st))
		if plan.MaxPasses > 0 {
			engOpts = append(engOpts, engine.WithMaxPasses(plan.MaxPasses))
		}
		return rf, applyRunFlags(opts, engOpts), nil
	}

	rf, err := routine.LoadPath(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load routine", err)
	}
	engOpts = append(engOpts, engine.WithJournal(st))
	return rf, applyRunFlags(opts, engOpts), nil
}

func applyRunFlags(opts *RunOptions, engOpts []engine.Option) []engine.Option {
	if opts.MaxPasses > 0 {
		engOpts = append(engOpts, engine.WithMaxPasses(opts.MaxPasses))
	}
	if opts.NoFixpoint {
		engOpts = append(engOpts, engine.WithFixpoint(false))
	}
	if opts.NoPrune {
		engOpts = append(engOpts, engine.WithOrphanPruning(false))
	}
	return engOpts
}

// parentContext returns the command's context, falling back to Background.
func parentContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// writeReport prints a run report in the configured format.
func writeReport(opts *RootOptions, cmd *cobra.Command, report *engine.Report) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s: %s after %d pass(es), -%d/+%d triples\n",
		report.RunID, report.StateStr, report.Passes, report.Deleted, report.Inserted)
	for _, sr := range report.Steps {
		fmt.Fprintf(w, "  pass %d %-30s rows=%-5d -%d/+%d\n",
			sr.Pass, sr.Step, sr.Rows, sr.Deleted, sr.Inserted)
	}
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}
