package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test: a starting graph, a cleanup to run,
// and expectations over the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are named by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is the starting graph as inline N-Triples. Blank nodes are
	// skolemized on load.
	Dataset string `yaml:"dataset"`

	// Routine is an inline routine file. Mutually exclusive with Plan.
	Routine string `yaml:"routine,omitempty"`

	// Plan is an inline CUE cleanup plan holding exactly one plan entry.
	// Mutually exclusive with Routine.
	Plan string `yaml:"plan,omitempty"`

	// Options tune the fixed-point driver for this scenario.
	Options Options `yaml:"options,omitempty"`

	// Expect validates the run report and the final graph.
	Expect Expect `yaml:"expect"`
}

// Options mirror the engine's tuning knobs. Nil fields keep defaults.
type Options struct {
	MaxPasses int   `yaml:"max_passes,omitempty"`
	Fixpoint  *bool `yaml:"fixpoint,omitempty"`
	Prune     *bool `yaml:"prune,omitempty"`
}

// Expect specifies the outcome a scenario requires. Nil integer fields are
// not checked.
type Expect struct {
	// State is the required terminal run state ("converged", "capped-out").
	State string `yaml:"state,omitempty"`

	// Passes, Deleted, Inserted check the report counters exactly.
	Passes   *int `yaml:"passes,omitempty"`
	Deleted  *int `yaml:"deleted,omitempty"`
	Inserted *int `yaml:"inserted,omitempty"`

	// Graph is the exact final graph as N-Triples, order-insensitive.
	Graph string `yaml:"graph,omitempty"`

	// Contains lists triples that must exist in the final graph.
	Contains []string `yaml:"contains,omitempty"`

	// Absent lists triples that must not exist in the final graph.
	Absent []string `yaml:"absent,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML source.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	switch {
	case s.Routine == "" && s.Plan == "":
		return fmt.Errorf("one of routine or plan is required")
	case s.Routine != "" && s.Plan != "":
		return fmt.Errorf("routine and plan are mutually exclusive")
	}
	if s.Options.MaxPasses < 0 {
		return fmt.Errorf("options.max_passes must be non-negative")
	}

	e := &s.Expect
	if e.State == "" && e.Passes == nil && e.Deleted == nil && e.Inserted == nil &&
		e.Graph == "" && len(e.Contains) == 0 && len(e.Absent) == 0 {
		return fmt.Errorf("expect block must check at least one outcome")
	}
	return nil
}
