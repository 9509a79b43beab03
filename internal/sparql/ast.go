package sparql

import (
	"fmt"

	"github.com/bareyan/kg-explorer/internal/rdf"
)

// PatternTerm is one slot of a triple pattern.
//
// This is a sealed interface - only Constant, Variable, and Placeholder
// implement it. The marker method enables exhaustive type switches in the
// evaluator and the template instantiator.
type PatternTerm interface {
	patternTerm()
}

// Constant is a concrete RDF term in a pattern slot.
type Constant struct {
	Term rdf.Term
}

func (Constant) patternTerm() {}

// Variable is a query variable slot, named without the '?' sigil.
type Variable struct {
	Name string
}

func (Variable) patternTerm() {}

// Placeholder is a template slot written {{name}} in routine text. It is
// only legal inside the rewrite template of a templated merge and must be
// replaced by a bound term before the statement reaches the store.
type Placeholder struct {
	Name string
}

func (Placeholder) patternTerm() {}

// TriplePattern matches triples slot-wise. A Constant slot matches exactly
// that term; a Variable slot matches anything and binds it.
type TriplePattern struct {
	Subject   PatternTerm
	Predicate PatternTerm
	Object    PatternTerm
}

// Bind assigns the value of an expression to a fresh variable, written
// BIND(expr AS ?v) in routine text.
type Bind struct {
	Expr Expr
	Var  string
}

// GroupPattern is the body of a WHERE clause: triple patterns joined on
// shared variables, followed by BIND assignments and FILTER constraints.
// Binds are applied in written order after pattern matching; Filters then
// discard rows that do not evaluate to true.
type GroupPattern struct {
	Patterns []TriplePattern
	Binds    []Bind
	Filters  []Expr
}

// Vars returns the names of all variables bound by the group, in first
// appearance order: pattern variables first, then BIND targets.
func (g *GroupPattern) Vars() []string {
	var names []string
	seen := map[string]bool{}
	add := func(pt PatternTerm) {
		if v, ok := pt.(Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	}
	for _, p := range g.Patterns {
		add(p.Subject)
		add(p.Predicate)
		add(p.Object)
	}
	for _, b := range g.Binds {
		if !seen[b.Var] {
			seen[b.Var] = true
			names = append(names, b.Var)
		}
	}
	return names
}

// SelectQuery is a read-only selection producing ordered binding rows.
type SelectQuery struct {
	Vars     []string // projected variable names, declaration order
	Distinct bool
	Where    GroupPattern
	Limit    int // 0 = unlimited
	Offset   int
}

// UpdateRequest is one delete-then-insert rewrite unit. Delete and Insert
// are templates instantiated once per WHERE solution; a nil Where applies
// them once with no bindings, which requires both templates to be concrete.
type UpdateRequest struct {
	Delete []TriplePattern
	Insert []TriplePattern
	Where  *GroupPattern
}

// Expr is a sealed expression interface - only TermLit, VarRef, FuncCall,
// Comparison, And, Or, and Not implement it.
type Expr interface {
	exprNode()
}

// TermLit is a constant term in an expression.
type TermLit struct {
	Term rdf.Term
}

func (TermLit) exprNode() {}

// VarRef references a bound variable by name.
type VarRef struct {
	Name string
}

func (VarRef) exprNode() {}

// FuncCall invokes one of the supported builtin functions.
// Supported names: STR, REPLACE, CONCAT, IRI, LCASE, UCASE, REGEX.
type FuncCall struct {
	Name string
	Args []Expr
}

func (FuncCall) exprNode() {}

// Comparison compares two expressions. Op is one of = != < <= > >=.
// Terms compare by ordinal comparison of their lexical forms when both
// sides are strings, and by full rendered form otherwise.
type Comparison struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Comparison) exprNode() {}

// And is a conjunction of boolean expressions.
type And struct {
	Exprs []Expr
}

func (And) exprNode() {}

// Or is a disjunction of boolean expressions.
type Or struct {
	Exprs []Expr
}

func (Or) exprNode() {}

// Not negates a boolean expression.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// Placeholders collects placeholder names occurring in pattern slots of the
// given templates, in first appearance order.
func Placeholders(patterns ...[]TriplePattern) []string {
	var names []string
	seen := map[string]bool{}
	add := func(pt PatternTerm) {
		if p, ok := pt.(Placeholder); ok && !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	for _, ps := range patterns {
		for _, p := range ps {
			add(p.Subject)
			add(p.Predicate)
			add(p.Object)
		}
	}
	return names
}

// UpdatePlaceholders collects placeholder names from all pattern slots of an
// update request, including its WHERE clause.
func UpdatePlaceholders(u *UpdateRequest) []string {
	all := [][]TriplePattern{u.Delete, u.Insert}
	if u.Where != nil {
		all = append(all, u.Where.Patterns)
	}
	return Placeholders(all...)
}

// formatSlot renders a pattern slot in routine text form.
func formatSlot(pt PatternTerm) string {
	switch v := pt.(type) {
	case Constant:
		return v.Term.String()
	case Variable:
		return "?" + v.Name
	case Placeholder:
		return "{{" + v.Name + "}}"
	default:
		return fmt.Sprintf("%T", pt)
	}
}
