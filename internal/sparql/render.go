package sparql

import "strings"

// String renders the update in routine statement form. The output parses
// back to an equivalent request, so a rendered statement can be journaled
// and later replayed verbatim.
func (u *UpdateRequest) String() string {
	var b strings.Builder
	if len(u.Delete) > 0 {
		b.WriteString("DELETE ")
		writePatterns(&b, u.Delete)
	}
	if len(u.Insert) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("INSERT ")
		writePatterns(&b, u.Insert)
	}
	if u.Where != nil {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("WHERE ")
		writeGroup(&b, u.Where)
	}
	return b.String()
}

func writePatterns(b *strings.Builder, patterns []TriplePattern) {
	b.WriteString("{ ")
	for i, p := range patterns {
		if i > 0 {
			b.WriteString(" . ")
		}
		b.WriteString(formatSlot(p.Subject))
		b.WriteByte(' ')
		b.WriteString(formatSlot(p.Predicate))
		b.WriteByte(' ')
		b.WriteString(formatSlot(p.Object))
	}
	b.WriteString(" }")
}

func writeGroup(b *strings.Builder, g *GroupPattern) {
	b.WriteString("{ ")
	for i, p := range g.Patterns {
		if i > 0 {
			b.WriteString(" . ")
		}
		b.WriteString(formatSlot(p.Subject))
		b.WriteByte(' ')
		b.WriteString(formatSlot(p.Predicate))
		b.WriteByte(' ')
		b.WriteString(formatSlot(p.Object))
	}
	for _, bind := range g.Binds {
		b.WriteString(" BIND(")
		writeExpr(b, bind.Expr)
		b.WriteString(" AS ?")
		b.WriteString(bind.Var)
		b.WriteByte(')')
	}
	for _, f := range g.Filters {
		b.WriteString(" FILTER(")
		writeExpr(b, f)
		b.WriteByte(')')
	}
	b.WriteString(" }")
}

func writeExpr(b *strings.Builder, e Expr) {
	switch v := e.(type) {
	case TermLit:
		b.WriteString(v.Term.String())
	case VarRef:
		b.WriteString("?" + v.Name)
	case FuncCall:
		b.WriteString(v.Name)
		b.WriteByte('(')
		for i, arg := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, arg)
		}
		b.WriteByte(')')
	case Comparison:
		writeOperand(b, v.Left)
		b.WriteByte(' ')
		b.WriteString(v.Op)
		b.WriteByte(' ')
		writeOperand(b, v.Right)
	case And:
		for i, sub := range v.Exprs {
			if i > 0 {
				b.WriteString(" && ")
			}
			writeOperand(b, sub)
		}
	case Or:
		for i, sub := range v.Exprs {
			if i > 0 {
				b.WriteString(" || ")
			}
			writeOperand(b, sub)
		}
	case Not:
		b.WriteByte('!')
		writeOperand(b, v.Expr)
	}
}

// writeOperand parenthesizes anything the expression grammar does not
// accept as a bare primary, keeping the rendered text reparsable.
func writeOperand(b *strings.Builder, e Expr) {
	switch e.(type) {
	case TermLit, VarRef, FuncCall:
		writeExpr(b, e)
	default:
		b.WriteByte('(')
		writeExpr(b, e)
		b.WriteByte(')')
	}
}
