package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/sparql"
	"github.com/bareyan/kg-explorer/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
}

// TypeCount is one row of the type histogram.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// StoreStats is the payload of the stats command.
type StoreStats struct {
	Triples int         `json:"triples"`
	Types   []TypeCount `json:"types"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Show triple count and type histogram",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to store database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore(st)

	stats, err := collectStats(cmd, st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to collect stats", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(stats)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d triples\n", stats.Triples)
	for _, tc := range stats.Types {
		fmt.Fprintf(w, "  %8d  %s\n", tc.Count, tc.Type)
	}
	return nil
}

func collectStats(cmd *cobra.Command, st *store.TripleStore) (*StoreStats, error) {
	q, err := sparql.ParseSelect("SELECT ?s ?t WHERE { ?s a ?t }")
	if err != nil {
		return nil, err
	}
	rows, err := st.Select(cmd.Context(), q)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, row := range rows {
		counts[rdf.LexicalForm(row["t"])]++
	}

	stats := &StoreStats{Triples: st.Count()}
	for typ, n := range counts {
		stats.Types = append(stats.Types, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(stats.Types, func(i, j int) bool {
		if stats.Types[i].Count != stats.Types[j].Count {
			return stats.Types[i].Count > stats.Types[j].Count
		}
		return stats.Types[i].Type < stats.Types[j].Type
	})
	return stats, nil
}
