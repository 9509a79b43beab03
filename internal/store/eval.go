package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bareyan/kg-explorer/internal/rdf"
	"github.com/bareyan/kg-explorer/internal/sparql"
)

var xsdBoolean = rdf.IRI("http://www.w3.org/2001/XMLSchema#boolean")

func boolTerm(v bool) rdf.Term {
	if v {
		return rdf.Literal{Value: "true", Datatype: xsdBoolean}
	}
	return rdf.Literal{Value: "false", Datatype: xsdBoolean}
}

// evalExpr evaluates an expression under a binding. Errors follow SPARQL
// semantics at the call sites: a failing BIND leaves its variable unbound
// and a failing FILTER discards the row.
func evalExpr(e sparql.Expr, b sparql.Binding) (rdf.Term, error) {
	switch v := e.(type) {
	case sparql.TermLit:
		return v.Term, nil

	case sparql.VarRef:
		t, ok := b[v.Name]
		if !ok {
			return nil, fmt.Errorf("variable ?%s is unbound", v.Name)
		}
		return t, nil

	case sparql.FuncCall:
		return evalFunc(v, b)

	case sparql.Comparison:
		left, err := evalExpr(v.Left, b)
		if err != nil {
			return nil, err
		}
		right, err := evalExpr(v.Right, b)
		if err != nil {
			return nil, err
		}
		return boolTerm(compareTerms(v.Op, left, right)), nil

	case sparql.And:
		for _, sub := range v.Exprs {
			ok, err := evalBool(sub, b)
			if err != nil {
				return nil, err
			}
			if !ok {
				return boolTerm(false), nil
			}
		}
		return boolTerm(true), nil

	case sparql.Or:
		for _, sub := range v.Exprs {
			ok, err := evalBool(sub, b)
			if err != nil {
				return nil, err
			}
			if ok {
				return boolTerm(true), nil
			}
		}
		return boolTerm(false), nil

	case sparql.Not:
		ok, err := evalBool(v.Expr, b)
		if err != nil {
			return nil, err
		}
		return boolTerm(!ok), nil

	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

// evalBool evaluates an expression and coerces it to a boolean.
func evalBool(e sparql.Expr, b sparql.Binding) (bool, error) {
	t, err := evalExpr(e, b)
	if err != nil {
		return false, err
	}
	lit, ok := t.(rdf.Literal)
	if !ok || lit.Datatype != xsdBoolean {
		return false, fmt.Errorf("expression is not a boolean: %s", t)
	}
	return lit.Value == "true", nil
}

func evalFunc(call sparql.FuncCall, b sparql.Binding) (rdf.Term, error) {
	args := make([]rdf.Term, len(call.Args))
	for i, a := range call.Args {
		t, err := evalExpr(a, b)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}

	switch call.Name {
	case "STR":
		return rdf.NewLiteral(rdf.LexicalForm(args[0])), nil

	case "IRI":
		iri := rdf.LexicalForm(args[0])
		if iri == "" || strings.ContainsAny(iri, " <>\"{}|\\^`") {
			return nil, fmt.Errorf("IRI(%q): not a valid IRI", iri)
		}
		return rdf.IRI(iri), nil

	case "LCASE":
		lit, err := literalArg(call.Name, args[0])
		if err != nil {
			return nil, err
		}
		lit.Value = strings.ToLower(lit.Value)
		return lit, nil

	case "UCASE":
		lit, err := literalArg(call.Name, args[0])
		if err != nil {
			return nil, err
		}
		lit.Value = strings.ToUpper(lit.Value)
		return lit, nil

	case "CONCAT":
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(rdf.LexicalForm(a))
		}
		return rdf.NewLiteral(sb.String()), nil

	case "REPLACE":
		lit, err := literalArg(call.Name, args[0])
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(rdf.LexicalForm(args[1]))
		if err != nil {
			return nil, fmt.Errorf("REPLACE: %w", err)
		}
		lit.Value = re.ReplaceAllString(lit.Value, rdf.LexicalForm(args[2]))
		return lit, nil

	case "REGEX":
		re, err := regexp.Compile(rdf.LexicalForm(args[1]))
		if err != nil {
			return nil, fmt.Errorf("REGEX: %w", err)
		}
		return boolTerm(re.MatchString(rdf.LexicalForm(args[0]))), nil

	default:
		return nil, fmt.Errorf("unknown function %s", call.Name)
	}
}

func literalArg(fn string, t rdf.Term) (rdf.Literal, error) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return rdf.Literal{}, fmt.Errorf("%s expects a literal, got %s", fn, t)
	}
	return lit, nil
}

// compareTerms implements comparison over terms. Equality is term identity;
// ordering compares lexical forms ordinally when both sides are literals and
// full rendered forms otherwise, matching the survivor tie-break.
func compareTerms(op string, left, right rdf.Term) bool {
	var cmp int
	ll, lok := left.(rdf.Literal)
	rl, rok := right.(rdf.Literal)
	if lok && rok {
		cmp = strings.Compare(ll.Value, rl.Value)
	} else {
		cmp = rdf.Compare(left, right)
	}

	switch op {
	case "=":
		return rdf.Equal(left, right)
	case "!=":
		return !rdf.Equal(left, right)
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return false
	}
}
