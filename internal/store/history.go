package store

import (
	"context"
)

// HistoryEntry is one journaled routine statement. RunID groups the entries
// of a single engine run; Seq orders them within the run.
type HistoryEntry struct {
	RunID     string
	Seq       int64
	Kind      string // "update", "advanced", "routine", or "version"
	Statement string
}

// History entry kinds.
const (
	HistoryUpdate   = "update"   // a direct rewrite statement
	HistoryAdvanced = "advanced" // a selection query plus rewrite template
	HistoryRoutine  = "routine"  // a routine file reference, file::section
	HistoryVersion  = "version"  // a snapshot marker written by DumpVersion
)

// AppendHistory journals an applied statement.
func (s *TripleStore) AppendHistory(ctx context.Context, e HistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO history (run_id, seq, kind, statement) VALUES (?, ?, ?, ?)",
		e.RunID, e.Seq, e.Kind, e.Statement,
	)
	if err != nil {
		return &StoreError{Op: "append history", Err: err}
	}
	return nil
}

// History returns all journal entries in applied order.
func (s *TripleStore) History(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, seq, kind, statement FROM history ORDER BY id ASC")
	if err != nil {
		return nil, &StoreError{Op: "read history", Err: err}
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Kind, &e.Statement); err != nil {
			return nil, &StoreError{Op: "read history", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "read history", Err: err}
	}
	return entries, nil
}

// TruncateHistoryAfter removes journal entries recorded after the given run,
// used when the graph is reverted to an earlier version.
func (s *TripleStore) TruncateHistoryAfter(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM history WHERE id > COALESCE(
			(SELECT MAX(id) FROM history WHERE run_id = ?), 0)`,
		runID,
	)
	if err != nil {
		return &StoreError{Op: "truncate history", Err: err}
	}
	return nil
}
