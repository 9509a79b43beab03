package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Plan is a compiled cleanup plan.
type Plan struct {
	// Name of the plan, taken from the CUE struct label.
	Name string
	// Dataset is an optional path to the N-Triples file the plan targets.
	Dataset string
	// Routines lists routine files to run alongside the generated merges.
	Routines []string
	// Fixpoint controls whether merge steps repeat until no step changes
	// the graph. Defaults to true.
	Fixpoint bool
	// MaxPasses caps the fixed-point driver. Zero means the engine default.
	MaxPasses int
	// Merges are the declarative entity-merge rules.
	Merges []MergeRule
}

// MergeRule declares that two entities of the given type are duplicates
// when they agree on every key predicate.
type MergeRule struct {
	// Type is the rdf:type IRI of the entities to merge.
	Type string
	// Keys are the predicate IRIs whose shared values identify duplicates.
	Keys []string
}

// CompileError represents a plan compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
