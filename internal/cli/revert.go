package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bareyan/kg-explorer/internal/store"
)

// RevertOptions holds flags for the revert command.
type RevertOptions struct {
	*RootOptions
	Database string
	Versions string
}

// NewRevertCommand creates the revert command.
func NewRevertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RevertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "revert <version>",
		Short: "Restore the graph from a version snapshot",
		Long: `Replace the store contents with the snapshot of the given version
number and discard newer snapshots.

Snapshots are written by "kgx run --versions".

Example:
  kgx revert --db graph.db --versions ./versions 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevert(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to store database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Versions, "versions", "", "directory holding version snapshots (required)")
	_ = cmd.MarkFlagRequired("versions")

	return cmd
}

func runRevert(opts *RevertOptions, arg string, cmd *cobra.Command) error {
	version, err := strconv.Atoi(arg)
	if err != nil || version < 0 {
		return WrapExitError(ExitCommandError, "version must be a non-negative integer", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore(st)

	if err := st.Revert(cmd.Context(), opts.Versions, version); err != nil {
		return WrapExitError(ExitFailure, "failed to revert", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Successf(map[string]int{"version": version, "triples": st.Count()},
		"reverted to version %d (%d triples)", version, st.Count())
}
