package sparql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bareyan/kg-explorer/internal/rdf"
)

// SyntaxError reports where in the source a statement failed to parse.
// Line numbers are relative to the parsed fragment; the routine loader
// offsets them into the routine file.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokVar
	tokPlaceholder
	tokTerm
	tokPunct // one of { } ( ) . ; ,
	tokOp    // comparison or boolean operator
)

type token struct {
	kind tokenKind
	text string   // identifier, variable name, placeholder name, punct, op
	term rdf.Term // set for tokTerm
	line int
}

type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

// next scans one token. Scanning of IRIs, literals, and blank nodes is
// delegated to the rdf package so escaping rules live in one place.
func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, line: lx.line}, nil
	}

	c := lx.src[lx.pos]
	line := lx.line

	switch {
	case c == '{' && lx.peekAt(1) == '{':
		name, err := lx.scanPlaceholder()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokPlaceholder, text: name, line: line}, nil

	case c == '{' || c == '}' || c == '(' || c == ')' || c == '.' || c == ';' || c == ',':
		lx.pos++
		return token{kind: tokPunct, text: string(c), line: line}, nil

	case c == '?' || c == '$':
		lx.pos++
		start := lx.pos
		for lx.pos < len(lx.src) && isNameChar(lx.src[lx.pos]) {
			lx.pos++
		}
		if lx.pos == start {
			return token{}, &SyntaxError{Line: line, Msg: "variable with empty name"}
		}
		return token{kind: tokVar, text: lx.src[start:lx.pos], line: line}, nil

	case c == '<' && lx.looksLikeIRI():
		return lx.scanTerm(line)

	case c == '"' || c == '_':
		return lx.scanTerm(line)

	case c == '<' || c == '>' || c == '=' || c == '!':
		op := string(c)
		lx.pos++
		if lx.pos < len(lx.src) && lx.src[lx.pos] == '=' {
			op += "="
			lx.pos++
		}
		return token{kind: tokOp, text: op, line: line}, nil

	case c == '&' && lx.peekAt(1) == '&':
		lx.pos += 2
		return token{kind: tokOp, text: "&&", line: line}, nil

	case c == '|' && lx.peekAt(1) == '|':
		lx.pos += 2
		return token{kind: tokOp, text: "||", line: line}, nil

	case c >= '0' && c <= '9':
		start := lx.pos
		for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
			lx.pos++
		}
		lit := rdf.Literal{Value: lx.src[start:lx.pos], Datatype: xsdInteger}
		return token{kind: tokTerm, term: lit, line: line}, nil

	case isNameStart(c):
		start := lx.pos
		for lx.pos < len(lx.src) && isNameChar(lx.src[lx.pos]) {
			lx.pos++
		}
		return token{kind: tokIdent, text: lx.src[start:lx.pos], line: line}, nil

	default:
		return token{}, &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
}

var xsdInteger = rdf.IRI("http://www.w3.org/2001/XMLSchema#integer")

func (lx *lexer) scanTerm(line int) (token, error) {
	t, rest, err := rdf.ScanTerm(lx.src[lx.pos:])
	if err != nil {
		return token{}, &SyntaxError{Line: line, Msg: err.Error()}
	}
	consumed := len(lx.src) - lx.pos - len(rest)
	lx.line += strings.Count(lx.src[lx.pos:lx.pos+consumed], "\n")
	lx.pos += consumed
	return token{kind: tokTerm, term: t, line: line}, nil
}

func (lx *lexer) scanPlaceholder() (string, error) {
	line := lx.line
	end := strings.Index(lx.src[lx.pos:], "}}")
	if end < 0 {
		return "", &SyntaxError{Line: line, Msg: "unterminated {{placeholder}}"}
	}
	name := strings.TrimSpace(lx.src[lx.pos+2 : lx.pos+end])
	if name == "" || strings.ContainsAny(name, " \t\n{}") {
		return "", &SyntaxError{Line: line, Msg: fmt.Sprintf("malformed placeholder name %q", name)}
	}
	lx.pos += end + 2
	return name, nil
}

// looksLikeIRI distinguishes an IRI reference from the '<' comparison
// operator: an IRI closes with '>' before any whitespace.
func (lx *lexer) looksLikeIRI() bool {
	for i := lx.pos + 1; i < len(lx.src); i++ {
		switch lx.src[i] {
		case '>':
			return true
		case ' ', '\t', '\n', '\r':
			return false
		}
	}
	return false
}

func (lx *lexer) peekAt(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '\n' {
			lx.line++
			lx.pos++
		} else if c == ' ' || c == '\t' || c == '\r' {
			lx.pos++
		} else {
			return
		}
	}
}

func isNameStart(c byte) bool {
	return unicode.IsLetter(rune(c))
}

func isNameChar(c byte) bool {
	return unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_'
}
