package routine

import "fmt"

// ParseError reports a malformed routine section. Loading fails as a whole:
// a routine file with any bad section applies nothing.
type ParseError struct {
	File      string
	Section   string
	StartLine int
	EndLine   int
	Err       error
}

func (e *ParseError) Error() string {
	where := e.File
	if e.Section != "" {
		where += ", section " + fmt.Sprintf("%q", e.Section)
	}
	return fmt.Sprintf("parse %s (lines %d-%d): %v", where, e.StartLine, e.EndLine, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnboundPlaceholderError reports a template placeholder that no projected
// variable of the paired selection query can ever bind. Detected at load
// time, before execution.
type UnboundPlaceholderError struct {
	Section     string
	Placeholder string
}

func (e *UnboundPlaceholderError) Error() string {
	return fmt.Sprintf("section %q: placeholder {{%s}} is not projected by the selection query",
		e.Section, e.Placeholder)
}

// UnboundVariableError reports a binding row that lacks a variable the
// template needs. The projected variable exists but optional matching left
// it unbound for this row; the engine skips the row and records a warning.
type UnboundVariableError struct {
	Section  string
	Variable string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("section %q: binding row does not bind {{%s}}", e.Section, e.Variable)
}
