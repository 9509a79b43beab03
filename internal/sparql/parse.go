package sparql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bareyan/kg-explorer/internal/rdf"
)

// ParseSelect parses a SELECT query from routine text.
func ParseSelect(src string) (*SelectQuery, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	q, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseUpdate parses a single DELETE/INSERT/WHERE update request.
func ParseUpdate(src string) (*UpdateRequest, error) {
	us, err := ParseUpdates(src)
	if err != nil {
		return nil, err
	}
	if len(us) != 1 {
		return nil, &SyntaxError{Line: 1, Msg: fmt.Sprintf("expected one update statement, got %d", len(us))}
	}
	return us[0], nil
}

// ParseUpdates parses a sequence of update statements separated by ';'.
// A trailing ';' is allowed. This is the form of a rewrite template body.
func ParseUpdates(src string) ([]*UpdateRequest, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	var updates []*UpdateRequest
	for {
		if p.cur.kind == tokEOF {
			break
		}
		u, err := p.parseUpdate()
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
		if p.cur.kind == tokPunct && p.cur.text == ";" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, &SyntaxError{Line: 1, Msg: "empty update request"}
	}
	return updates, nil
}

type parser struct {
	lx  *lexer
	cur token
}

func newParser(src string) (*parser, error) {
	p := &parser{lx: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) errf(format string, args ...any) error {
	return &SyntaxError{Line: p.cur.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isKeyword(kw string) bool {
	return p.cur.kind == tokIdent && strings.EqualFold(p.cur.text, kw)
}

func (p *parser) acceptKeyword(kw string) (bool, error) {
	if p.isKeyword(kw) {
		return true, p.advance()
	}
	return false, nil
}

func (p *parser) expectKeyword(kw string) error {
	ok, err := p.acceptKeyword(kw)
	if err != nil {
		return err
	}
	if !ok {
		return p.errf("expected %s, got %s", kw, p.describe())
	}
	return nil
}

func (p *parser) expectPunct(punct string) error {
	if p.cur.kind != tokPunct || p.cur.text != punct {
		return p.errf("expected %q, got %s", punct, p.describe())
	}
	return p.advance()
}

func (p *parser) expectEOF() error {
	if p.cur.kind != tokEOF {
		return p.errf("unexpected trailing input: %s", p.describe())
	}
	return nil
}

func (p *parser) describe() string {
	switch p.cur.kind {
	case tokEOF:
		return "end of input"
	case tokVar:
		return "?" + p.cur.text
	case tokPlaceholder:
		return "{{" + p.cur.text + "}}"
	case tokTerm:
		return p.cur.term.String()
	default:
		return strconv.Quote(p.cur.text)
	}
}

// parseSelect parses: SELECT [DISTINCT] ?v+ WHERE group [LIMIT n] [OFFSET n]
func (p *parser) parseSelect() (*SelectQuery, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	q := &SelectQuery{}

	distinct, err := p.acceptKeyword("DISTINCT")
	if err != nil {
		return nil, err
	}
	q.Distinct = distinct

	for p.cur.kind == tokVar {
		q.Vars = append(q.Vars, p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if len(q.Vars) == 0 {
		return nil, p.errf("SELECT projects no variables")
	}

	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	group, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	q.Where = *group

	bound := map[string]bool{}
	for _, v := range group.Vars() {
		bound[v] = true
	}
	for _, v := range q.Vars {
		if !bound[v] {
			return nil, p.errf("projected variable ?%s is not bound in WHERE", v)
		}
	}

	if ok, err := p.acceptKeyword("LIMIT"); err != nil {
		return nil, err
	} else if ok {
		if q.Limit, err = p.parseCount("LIMIT"); err != nil {
			return nil, err
		}
	}
	if ok, err := p.acceptKeyword("OFFSET"); err != nil {
		return nil, err
	} else if ok {
		if q.Offset, err = p.parseCount("OFFSET"); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (p *parser) parseCount(kw string) (int, error) {
	lit, ok := p.cur.term.(rdf.Literal)
	if p.cur.kind != tokTerm || !ok || lit.Datatype != xsdInteger {
		return 0, p.errf("%s expects an integer, got %s", kw, p.describe())
	}
	n, err := strconv.Atoi(lit.Value)
	if err != nil || n < 0 {
		return 0, p.errf("%s expects a non-negative integer, got %q", kw, lit.Value)
	}
	return n, p.advance()
}

// parseUpdate parses: [DELETE template] [INSERT template] [WHERE group]
// with at least one rewrite block present.
func (p *parser) parseUpdate() (*UpdateRequest, error) {
	u := &UpdateRequest{}

	if ok, err := p.acceptKeyword("DELETE"); err != nil {
		return nil, err
	} else if ok {
		if u.Delete, err = p.parseTemplate(); err != nil {
			return nil, err
		}
	}
	if ok, err := p.acceptKeyword("INSERT"); err != nil {
		return nil, err
	} else if ok {
		if u.Insert, err = p.parseTemplate(); err != nil {
			return nil, err
		}
	}
	if u.Delete == nil && u.Insert == nil {
		return nil, p.errf("update request has neither DELETE nor INSERT block")
	}

	if ok, err := p.acceptKeyword("WHERE"); err != nil {
		return nil, err
	} else if ok {
		group, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		u.Where = group
	} else if err := validateConcrete(u); err != nil {
		return nil, &SyntaxError{Line: p.cur.line, Msg: err.Error()}
	}
	return u, nil
}

// validateConcrete rejects variables in a WHERE-less update: with nothing to
// bind them, they could silently match nothing.
func validateConcrete(u *UpdateRequest) error {
	for _, ps := range [][]TriplePattern{u.Delete, u.Insert} {
		for _, tp := range ps {
			for _, slot := range []PatternTerm{tp.Subject, tp.Predicate, tp.Object} {
				if v, ok := slot.(Variable); ok {
					return fmt.Errorf("variable ?%s in update without WHERE clause", v.Name)
				}
			}
		}
	}
	return nil
}

// parseTemplate parses a '{ pattern. pattern. }' rewrite block. Templates
// hold only triple patterns - FILTER and BIND belong in the WHERE clause.
func (p *parser) parseTemplate() ([]TriplePattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var patterns []TriplePattern
	for {
		if p.cur.kind == tokPunct && p.cur.text == "}" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return patterns, nil
		}
		tp, err := p.parseTriplePattern()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, tp)
		if p.cur.kind == tokPunct && p.cur.text == "." {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
}

// parseGroup parses a WHERE group: triple patterns, FILTERs, and BIND
// assignments, in any order within braces.
func (p *parser) parseGroup() (*GroupPattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	g := &GroupPattern{}
	for {
		switch {
		case p.cur.kind == tokPunct && p.cur.text == "}":
			if len(g.Patterns) == 0 && len(g.Binds) == 0 {
				return nil, p.errf("empty group pattern")
			}
			return g, p.advance()

		case p.isKeyword("FILTER"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			g.Filters = append(g.Filters, e)

		case p.isKeyword("BIND"):
			b, err := p.parseBind()
			if err != nil {
				return nil, err
			}
			g.Binds = append(g.Binds, *b)

		case p.cur.kind == tokEOF:
			return nil, p.errf("unterminated group pattern")

		default:
			tp, err := p.parseTriplePattern()
			if err != nil {
				return nil, err
			}
			g.Patterns = append(g.Patterns, tp)
		}

		if p.cur.kind == tokPunct && p.cur.text == "." {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) parseBind() (*Bind, error) {
	if err := p.advance(); err != nil { // consume BIND
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	if p.cur.kind != tokVar {
		return nil, p.errf("BIND target must be a variable, got %s", p.describe())
	}
	name := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &Bind{Expr: e, Var: name}, nil
}

func (p *parser) parseTriplePattern() (TriplePattern, error) {
	s, err := p.parseSlot(false)
	if err != nil {
		return TriplePattern{}, fmt.Errorf("subject: %w", err)
	}
	pr, err := p.parseSlot(true)
	if err != nil {
		return TriplePattern{}, fmt.Errorf("predicate: %w", err)
	}
	o, err := p.parseSlot(false)
	if err != nil {
		return TriplePattern{}, fmt.Errorf("object: %w", err)
	}
	return TriplePattern{Subject: s, Predicate: pr, Object: o}, nil
}

// parseSlot parses one pattern slot. In predicate position the bare keyword
// "a" abbreviates rdf:type.
func (p *parser) parseSlot(predicate bool) (PatternTerm, error) {
	switch p.cur.kind {
	case tokVar:
		v := Variable{Name: p.cur.text}
		return v, p.advance()
	case tokPlaceholder:
		ph := Placeholder{Name: p.cur.text}
		return ph, p.advance()
	case tokTerm:
		c := Constant{Term: p.cur.term}
		return c, p.advance()
	case tokIdent:
		if predicate && p.cur.text == "a" {
			c := Constant{Term: rdf.RDFType}
			return c, p.advance()
		}
		return nil, p.errf("unexpected identifier %q in triple pattern", p.cur.text)
	default:
		return nil, p.errf("expected term, variable, or placeholder, got %s", p.describe())
	}
}

// Expression grammar, loosest binding first: || then && then ! then
// comparison then primary.

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	exprs := []Expr{left}
	for p.cur.kind == tokOp && p.cur.text == "||" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, right)
	}
	if len(exprs) == 1 {
		return left, nil
	}
	return Or{Exprs: exprs}, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	exprs := []Expr{left}
	for p.cur.kind == tokOp && p.cur.text == "&&" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, right)
	}
	if len(exprs) == 1 {
		return left, nil
	}
	return And{Exprs: exprs}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur.kind == tokOp && p.cur.text == "!" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Expr: e}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokOp {
		switch p.cur.text {
		case "=", "!=", "<", "<=", ">", ">=":
			op := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return Comparison{Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

// builtinFuncs are the supported expression functions, keyed by uppercase
// name, with their accepted arity range.
var builtinFuncs = map[string][2]int{
	"STR":     {1, 1},
	"IRI":     {1, 1},
	"LCASE":   {1, 1},
	"UCASE":   {1, 1},
	"CONCAT":  {1, -1},
	"REPLACE": {3, 3},
	"REGEX":   {2, 2},
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.kind {
	case tokPunct:
		if p.cur.text == "(" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return e, p.expectPunct(")")
		}
	case tokVar:
		v := VarRef{Name: p.cur.text}
		return v, p.advance()
	case tokTerm:
		t := TermLit{Term: p.cur.term}
		return t, p.advance()
	case tokIdent:
		name := strings.ToUpper(p.cur.text)
		arity, ok := builtinFuncs[name]
		if !ok {
			return nil, p.errf("unknown function %q", p.cur.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(args) < arity[0] || (arity[1] >= 0 && len(args) > arity[1]) {
			return nil, p.errf("%s called with %d arguments", name, len(args))
		}
		return FuncCall{Name: name, Args: args}, nil
	}
	return nil, p.errf("expected expression, got %s", p.describe())
}

func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.cur.kind == tokPunct && p.cur.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return args, p.expectPunct(")")
	}
}
