package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = `<http://example.org/p1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Person> .
<http://example.org/p1> <http://schema.org/name> "Ada" .
<http://example.org/p2> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Person> .
<http://example.org/p2> <http://schema.org/name> "Ada" .
<http://example.org/p2> <http://schema.org/email> "ada@example.org" .
`

const testRoutine = `### test cleanup

## merge people @advanced
SELECT ?s1 ?s2 WHERE {
  ?s1 a <http://schema.org/Person> .
  ?s2 a <http://schema.org/Person> .
  ?s1 <http://schema.org/name> ?n .
  ?s2 <http://schema.org/name> ?n .
  FILTER(STR(?s1) < STR(?s2))
}
#
DELETE { ?r ?p {{s2}} }
INSERT { ?r ?p {{s1}} }
WHERE { ?r ?p {{s2}} };
DELETE { {{s2}} ?p ?o }
INSERT { {{s1}} ?p ?o }
WHERE { {{s2}} ?p ?o }
`

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupDataset(t *testing.T) (dbPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	dbPath = filepath.Join(dir, "graph.db")
	dataPath := filepath.Join(dir, "data.nt")
	require.NoError(t, os.WriteFile(dataPath, []byte(testDataset), 0o644))

	out, err := execute(t, "load", "--db", dbPath, "--raw", dataPath)
	require.NoError(t, err)
	require.Contains(t, out, "loaded 5 triples")
	return dbPath, dir
}

func TestRunRoutineEndToEnd(t *testing.T) {
	dbPath, dir := setupDataset(t)
	routinePath := filepath.Join(dir, "cleanup.rt")
	require.NoError(t, os.WriteFile(routinePath, []byte(testRoutine), 0o644))

	out, err := execute(t, "run", "--db", dbPath, routinePath)
	require.NoError(t, err)
	assert.Contains(t, out, "converged")
	assert.Contains(t, out, "merge people")

	// p2 collapsed into p1; graph has one person left.
	dump, err := execute(t, "dump", "--db", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, dump, "<http://example.org/p2>")
	assert.Contains(t, dump, `<http://example.org/p1> <http://schema.org/email> "ada@example.org" .`)
}

func TestRunPlanEndToEnd(t *testing.T) {
	dbPath, dir := setupDataset(t)
	planPath := filepath.Join(dir, "plan.cue")
	plan := `plan: "people": {
	merge: [{type: "http://schema.org/Person", keys: ["http://schema.org/name"]}]
}
`
	require.NoError(t, os.WriteFile(planPath, []byte(plan), 0o644))

	out, err := execute(t, "run", "--db", dbPath, planPath)
	require.NoError(t, err)
	assert.Contains(t, out, "converged")
	assert.Contains(t, out, "merge Person")
}

func TestRunMissingSection(t *testing.T) {
	dbPath, dir := setupDataset(t)
	routinePath := filepath.Join(dir, "cleanup.rt")
	require.NoError(t, os.WriteFile(routinePath, []byte(testRoutine), 0o644))

	_, err := execute(t, "run", "--db", dbPath, "--section", "no such step", routinePath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunBadRoutinePath(t *testing.T) {
	dbPath, _ := setupDataset(t)

	_, err := execute(t, "run", "--db", dbPath, "/nonexistent/cleanup.rt")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStatsAndJSONFormat(t *testing.T) {
	dbPath, _ := setupDataset(t)

	out, err := execute(t, "stats", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "5 triples")
	assert.Contains(t, out, "http://schema.org/Person")

	jsonOut, err := execute(t, "--format", "json", "stats", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, jsonOut, `"status":"ok"`)
	assert.Contains(t, jsonOut, `"triples":5`)
}

func TestRevertRestoresSnapshot(t *testing.T) {
	dbPath, dir := setupDataset(t)
	routinePath := filepath.Join(dir, "cleanup.rt")
	require.NoError(t, os.WriteFile(routinePath, []byte(testRoutine), 0o644))
	versionsDir := filepath.Join(dir, "versions")

	_, err := execute(t, "run", "--db", dbPath, "--versions", versionsDir, routinePath)
	require.NoError(t, err)

	out, err := execute(t, "revert", "--db", dbPath, "--versions", versionsDir, "0")
	require.NoError(t, err)
	assert.Contains(t, out, "reverted to version 0 (5 triples)")

	dump, err := execute(t, "dump", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, dump, "<http://example.org/p2>")
}

func TestReplayAfterRevertKeepsRevertedGraph(t *testing.T) {
	dbPath, dir := setupDataset(t)
	routinePath := filepath.Join(dir, "cleanup.rt")
	require.NoError(t, os.WriteFile(routinePath, []byte(testRoutine), 0o644))
	versionsDir := filepath.Join(dir, "versions")

	_, err := execute(t, "run", "--db", dbPath, "--versions", versionsDir, routinePath)
	require.NoError(t, err)

	_, err = execute(t, "revert", "--db", dbPath, "--versions", versionsDir, "0")
	require.NoError(t, err)
	want, err := execute(t, "dump", "--db", dbPath)
	require.NoError(t, err)

	// Revert cut the journal at the snapshot marker, so the replay must
	// rebuild the reverted graph instead of re-running the reverted steps.
	base := filepath.Join(versionsDir, "version_0.nt")
	_, err = execute(t, "replay", "--db", dbPath, "--base", base, "--routines", dir)
	require.NoError(t, err)

	got, err := execute(t, "dump", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Contains(t, got, "<http://example.org/p2>")
}

func TestReplayReproducesGraph(t *testing.T) {
	dbPath, dir := setupDataset(t)
	routinePath := filepath.Join(dir, "cleanup.rt")
	require.NoError(t, os.WriteFile(routinePath, []byte(testRoutine), 0o644))
	versionsDir := filepath.Join(dir, "versions")

	_, err := execute(t, "run", "--db", dbPath, "--versions", versionsDir, routinePath)
	require.NoError(t, err)
	want, err := execute(t, "dump", "--db", dbPath)
	require.NoError(t, err)

	base := filepath.Join(versionsDir, "version_0.nt")
	out, err := execute(t, "replay", "--db", dbPath, "--base", base, "--routines", dir)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "converged") || strings.Contains(out, "run "))

	got, err := execute(t, "dump", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
