package routine

import "github.com/bareyan/kg-explorer/internal/sparql"

// Step is one named rule of a routine file.
//
// This is a sealed interface - only DirectRewrite and TemplatedMerge
// implement it. The marker method enables exhaustive type switches in the
// engine.
type Step interface {
	StepName() string
	step()
}

// DirectRewrite is a rule applied as-is: one or more delete/insert rewrite
// statements whose WHERE clauses are evaluated by the store itself, with no
// binding enumeration in the engine.
type DirectRewrite struct {
	Name       string
	Statements []*sparql.UpdateRequest

	// Source is the raw section body, kept for diagnostics.
	Source string

	// Ref is the "file::section" reference journaled instead of the raw
	// statements when the step came from a routine file on disk. Empty for
	// steps built in memory.
	Ref string

	// StartLine and EndLine locate the section in the routine file.
	StartLine int
	EndLine   int
}

func (s *DirectRewrite) StepName() string { return s.Name }
func (*DirectRewrite) step()              {}

// TemplatedMerge is a rule parametrized by a selection step: the selection
// query enumerates binding rows, and the rewrite template is instantiated
// and applied once per row, statements in written order.
type TemplatedMerge struct {
	Name      string
	Selection *sparql.SelectQuery
	Template  []*sparql.UpdateRequest

	// SelectionSource and TemplateSource are the raw section parts, kept
	// for the history journal.
	SelectionSource string
	TemplateSource  string

	// Ref is the "file::section" reference journaled instead of the raw
	// sources when the step came from a routine file on disk. Empty for
	// steps built in memory.
	Ref string

	StartLine int
	EndLine   int
}

func (s *TemplatedMerge) StepName() string { return s.Name }
func (*TemplatedMerge) step()              {}

// RoutineFile is a named, ordered sequence of steps. Order is significant:
// it defines execution order within the file.
type RoutineFile struct {
	Name  string
	Title string
	Steps []Step
}

// Step returns the named step, or nil.
func (f *RoutineFile) Step(name string) Step {
	for _, s := range f.Steps {
		if s.StepName() == name {
			return s
		}
	}
	return nil
}
