package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bareyan/kg-explorer/internal/engine"
	"github.com/bareyan/kg-explorer/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Base     string
	Routines string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute the journaled run history",
		Long: `Reset the store to a base dataset and re-execute every journaled
statement in order. Journal entries that reference routine sections by name
are resolved against the --routines directory.

Because statement order, binding order, and pair orientation are all
deterministic, replaying the journal over the same base dataset reproduces
the same graph.

Example:
  kgx replay --db graph.db --base versions/version_0.nt --routines ./routines`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to store database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Base, "base", "", "N-Triples snapshot to reset the store to (required)")
	_ = cmd.MarkFlagRequired("base")
	cmd.Flags().StringVar(&opts.Routines, "routines", "", "directory for resolving routine section references")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore(st)

	entries, err := st.History(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}
	if len(entries) == 0 {
		return WrapExitError(ExitCommandError, "history is empty; nothing to replay", nil)
	}

	if err := st.Clear(cmd.Context()); err != nil {
		return WrapExitError(ExitFailure, "failed to clear store", err)
	}
	f, err := os.Open(opts.Base)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open base snapshot", err)
	}
	defer f.Close()
	loaded, err := st.Load(cmd.Context(), f)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load base snapshot", err)
	}
	slog.Info("base snapshot loaded", "path", opts.Base, "triples", loaded)

	replayer := engine.NewReplayer(st, opts.Routines)
	report, err := replayer.Replay(cmd.Context(), entries)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	return writeReport(opts.RootOptions, cmd, report)
}
