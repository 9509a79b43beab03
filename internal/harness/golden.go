package harness

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/bareyan/kg-explorer/internal/engine"
	"github.com/bareyan/kg-explorer/internal/testutil"
)

// Snapshot is the golden-file representation of a scenario execution: the
// full report plus the final graph, line by line.
type Snapshot struct {
	Scenario string         `json:"scenario"`
	Report   *engine.Report `json:"report"`
	Graph    []string       `json:"graph"`
}

// RunWithGolden executes a scenario with sequential run IDs and compares
// the outcome against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Expectation mismatches fail the test before the golden comparison, so a
// stale golden file cannot mask a broken scenario.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, engine.WithRunIDs(testutil.NewSequentialRunIDs()))
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	snapshot := Snapshot{
		Scenario: scenario.Name,
		Report:   result.Report,
		Graph:    graphLines(result.Graph),
	}
	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		t.Fatalf("scenario %s: marshal snapshot: %v", scenario.Name, err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result
}

func graphLines(dump string) []string {
	var lines []string
	for _, line := range strings.Split(dump, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
