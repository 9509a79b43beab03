package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bareyan/kg-explorer/internal/rdf"
)

// DumpVersion writes the graph to the next free version_N.nt file under dir
// and returns N. Version 0 holds the initial snapshot. Versions are plain
// sorted N-Triples documents, so a version file is also a portable export of
// the graph.
//
// Each dump also journals a snapshot marker, which is where Revert cuts the
// history so a later replay rebuilds the reverted graph rather than the
// pre-revert one.
func (s *TripleStore) DumpVersion(ctx context.Context, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, &StoreError{Op: "dump version", Err: err}
	}

	version := 0
	for {
		if _, err := os.Stat(versionPath(dir, version)); os.IsNotExist(err) {
			break
		}
		version++
	}

	f, err := os.Create(versionPath(dir, version))
	if err != nil {
		return 0, &StoreError{Op: "dump version", Err: err}
	}
	defer f.Close()

	if err := s.DumpTo(f); err != nil {
		return 0, err
	}

	marker := HistoryEntry{
		RunID:     versionRunID(version),
		Seq:       1,
		Kind:      HistoryVersion,
		Statement: strconv.Itoa(version),
	}
	if err := s.AppendHistory(ctx, marker); err != nil {
		return 0, err
	}
	return version, nil
}

// Revert replaces the graph with the contents of version_N.nt under dir and
// removes any newer version files. The replacement is written through to
// SQLite so the durable state matches, and the history journal is truncated
// at the version's snapshot marker. A snapshot without a marker truncates
// the whole journal: no journal suffix is known to reproduce it.
func (s *TripleStore) Revert(ctx context.Context, dir string, version int) error {
	f, err := os.Open(versionPath(dir, version))
	if err != nil {
		return &StoreError{Op: "revert", Err: err}
	}
	defer f.Close()

	if err := s.Clear(ctx); err != nil {
		return err
	}
	if _, err := s.Load(ctx, f); err != nil {
		return err
	}

	for v := version + 1; ; v++ {
		path := versionPath(dir, v)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		if err := os.Remove(path); err != nil {
			return &StoreError{Op: "revert", Err: err}
		}
	}
	return s.TruncateHistoryAfter(ctx, versionRunID(version))
}

func versionRunID(version int) string {
	return fmt.Sprintf("version-%d", version)
}

// Clear removes every triple from the graph.
func (s *TripleStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM triples"); err != nil {
		return &StoreError{Op: "clear", Err: err}
	}
	s.triples = make(map[string]rdf.Triple)
	s.bySubject = make(map[string]map[string]struct{})
	s.byPredicate = make(map[string]map[string]struct{})
	s.byObject = make(map[string]map[string]struct{})
	return nil
}

func versionPath(dir string, version int) string {
	return filepath.Join(dir, fmt.Sprintf("version_%d.nt", version))
}
