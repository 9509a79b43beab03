package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bareyan/kg-explorer/internal/rdf"
)

// checkExpect evaluates expectations against an executed result and returns
// one message per mismatch.
func checkExpect(e *Expect, result *Result) []string {
	var errs []string

	if e.State != "" && result.Report.StateStr != e.State {
		errs = append(errs, fmt.Sprintf("state: want %q, got %q", e.State, result.Report.StateStr))
	}
	if e.Passes != nil && result.Report.Passes != *e.Passes {
		errs = append(errs, fmt.Sprintf("passes: want %d, got %d", *e.Passes, result.Report.Passes))
	}
	if e.Deleted != nil && result.Report.Deleted != *e.Deleted {
		errs = append(errs, fmt.Sprintf("deleted: want %d, got %d", *e.Deleted, result.Report.Deleted))
	}
	if e.Inserted != nil && result.Report.Inserted != *e.Inserted {
		errs = append(errs, fmt.Sprintf("inserted: want %d, got %d", *e.Inserted, result.Report.Inserted))
	}

	graph := graphSet(result.Graph)

	for _, line := range e.Contains {
		canon, err := canonicalTriple(line)
		if err != nil {
			errs = append(errs, fmt.Sprintf("contains: %v", err))
			continue
		}
		if !graph[canon] {
			errs = append(errs, fmt.Sprintf("contains: missing %s", canon))
		}
	}
	for _, line := range e.Absent {
		canon, err := canonicalTriple(line)
		if err != nil {
			errs = append(errs, fmt.Sprintf("absent: %v", err))
			continue
		}
		if graph[canon] {
			errs = append(errs, fmt.Sprintf("absent: found %s", canon))
		}
	}

	if e.Graph != "" {
		if msg := diffGraph(e.Graph, graph); msg != "" {
			errs = append(errs, msg)
		}
	}

	return errs
}

// graphSet splits a dump into its canonical triple lines.
func graphSet(dump string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(dump, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = true
		}
	}
	return set
}

// canonicalTriple reparses an expected triple so whitespace and escaping
// differences do not produce false mismatches.
func canonicalTriple(line string) (string, error) {
	t, err := rdf.ParseTriple(line)
	if err != nil {
		return "", fmt.Errorf("bad triple %q: %w", line, err)
	}
	return t.String(), nil
}

// diffGraph compares an expected graph with the actual triple set,
// order-insensitively, and describes the difference.
func diffGraph(expected string, graph map[string]bool) string {
	want := make(map[string]bool)
	for _, line := range strings.Split(expected, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		canon, err := canonicalTriple(line)
		if err != nil {
			return fmt.Sprintf("graph: %v", err)
		}
		want[canon] = true
	}

	var missing, extra []string
	for line := range want {
		if !graph[line] {
			missing = append(missing, line)
		}
	}
	for line := range graph {
		if !want[line] {
			extra = append(extra, line)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return ""
	}
	sort.Strings(missing)
	sort.Strings(extra)

	var b strings.Builder
	b.WriteString("graph mismatch:")
	for _, line := range missing {
		b.WriteString("\n  missing: " + line)
	}
	for _, line := range extra {
		b.WriteString("\n  extra:   " + line)
	}
	return b.String()
}
