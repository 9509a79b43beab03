package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bareyan/kg-explorer/internal/store"
)

func TestReplayRebuildsGraph(t *testing.T) {
	ctx := context.Background()

	// The ghost entity exercises the pruning pass: its removal must come
	// out of the journal alone, since replay runs with pruning off.
	dataset := peopleDataset + `
<http://example.org/ghost> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Person> .
`

	src := newTestStore(t, dataset)
	report, err := New(src, WithJournal(src)).Run(ctx, loadRoutine(t, mergePeopleRoutine))
	require.NoError(t, err)
	require.Equal(t, StateConverged, report.State)
	want := dump(t, src)
	assert.NotContains(t, want, "ghost")

	entries, err := src.History(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	dst := newTestStore(t, dataset)
	replayReport, err := NewReplayer(dst, "").Replay(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, replayReport.State)
	assert.Equal(t, "replay", replayReport.Routine)
	assert.Equal(t, want, dump(t, dst))
}

func TestReplayRoutineReference(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fix.rt"), []byte(`### fixes

## rename
DELETE { ?s <http://example.org/old> ?o }
INSERT { ?s <http://example.org/new> ?o }
WHERE { ?s <http://example.org/old> ?o }
`), 0o644))

	st := newTestStore(t, `<http://example.org/a> <http://example.org/old> "v" .`)
	entries := []store.HistoryEntry{
		{RunID: "r1", Seq: 1, Kind: store.HistoryRoutine, Statement: "fix.rt::rename"},
	}

	report, err := NewReplayer(st, dir).Replay(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Inserted)
	assert.Contains(t, dump(t, st), "<http://example.org/new>")
}

func TestReplaySkipsVersionMarkers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, `<http://example.org/a> <http://example.org/old> "v" .`)

	entries := []store.HistoryEntry{
		{RunID: "version-0", Seq: 1, Kind: store.HistoryVersion, Statement: "0"},
		{RunID: "r1", Seq: 1, Kind: store.HistoryUpdate,
			Statement: "DELETE { ?s <http://example.org/old> ?o } WHERE { ?s <http://example.org/old> ?o }"},
	}

	report, err := NewReplayer(st, "").Replay(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, report.State)
	assert.Equal(t, 1, report.Deleted)
	assert.NotContains(t, dump(t, st), "<http://example.org/old>")
}

func TestReplayMalformedEntries(t *testing.T) {
	tests := []struct {
		name    string
		entry   store.HistoryEntry
		wantMsg string
	}{
		{
			name:    "advanced without separator",
			entry:   store.HistoryEntry{Kind: store.HistoryAdvanced, Statement: "SELECT ?s WHERE { ?s ?p ?o }"},
			wantMsg: "missing the '#' separator",
		},
		{
			name:    "update that does not parse",
			entry:   store.HistoryEntry{Kind: store.HistoryUpdate, Statement: "DELETE { ?s ?p }"},
			wantMsg: "history entry 0",
		},
		{
			name:    "routine reference without section",
			entry:   store.HistoryEntry{Kind: store.HistoryRoutine, Statement: "fix.rt"},
			wantMsg: "not of the form file::section",
		},
		{
			name:    "unknown kind",
			entry:   store.HistoryEntry{Kind: "snapshot", Statement: "x"},
			wantMsg: `unknown history kind "snapshot"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t, `<http://example.org/a> <http://example.org/p> "v" .`)
			report, err := NewReplayer(st, "").Replay(context.Background(), []store.HistoryEntry{tt.entry})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, StateFailed, report.State)
			assert.Contains(t, dump(t, st), "example.org/a", "a failed replay applies nothing further")
		})
	}
}
