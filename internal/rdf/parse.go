package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseTerm parses the N-Triples form of a single term. The whole input must
// be consumed by the term.
func ParseTerm(s string) (Term, error) {
	t, rest, err := ScanTerm(s)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("trailing input after term: %q", rest)
	}
	return t, nil
}

// ScanTerm parses one term from the front of s and returns the remainder.
// Leading whitespace is skipped.
func ScanTerm(s string) (Term, string, error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return nil, "", fmt.Errorf("expected term, got end of input")
	}

	switch s[0] {
	case '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated IRI: %q", truncate(s))
		}
		return IRI(s[1:end]), s[end+1:], nil

	case '_':
		if len(s) < 2 || s[1] != ':' {
			return nil, "", fmt.Errorf("malformed blank node: %q", truncate(s))
		}
		end := 2
		for end < len(s) && !isTermBoundary(s[end]) {
			end++
		}
		if end == 2 {
			return nil, "", fmt.Errorf("blank node with empty label")
		}
		return BlankNode(s[2:end]), s[end:], nil

	case '"':
		return scanLiteral(s)

	default:
		return nil, "", fmt.Errorf("unexpected term start %q", s[0])
	}
}

// scanLiteral parses a quoted literal with optional @lang or ^^<datatype>.
func scanLiteral(s string) (Term, string, error) {
	value, rest, err := unquote(s)
	if err != nil {
		return nil, "", err
	}

	lit := Literal{Value: value}
	switch {
	case strings.HasPrefix(rest, "@"):
		end := 1
		for end < len(rest) && (isAlphaNum(rest[end]) || rest[end] == '-') {
			end++
		}
		if end == 1 {
			return nil, "", fmt.Errorf("literal with empty language tag")
		}
		lit.Lang = rest[1:end]
		rest = rest[end:]

	case strings.HasPrefix(rest, "^^"):
		t, r, err := ScanTerm(rest[2:])
		if err != nil {
			return nil, "", fmt.Errorf("literal datatype: %w", err)
		}
		dt, ok := t.(IRI)
		if !ok {
			return nil, "", fmt.Errorf("literal datatype must be an IRI, got %s", t)
		}
		if dt != XSDString {
			lit.Datatype = dt
		}
		rest = r
	}
	return lit, rest, nil
}

// unquote consumes a leading double-quoted string, resolving escapes, and
// returns the value and the remainder after the closing quote.
func unquote(s string) (string, string, error) {
	if s == "" || s[0] != '"' {
		return "", "", fmt.Errorf("expected opening quote")
	}
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return sb.String(), s[i+1:], nil
		case '\\':
			if i+1 >= len(s) {
				return "", "", fmt.Errorf("dangling escape at end of literal")
			}
			i++
			switch s[i] {
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 'f':
				sb.WriteByte('\f')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			case '\\':
				sb.WriteByte('\\')
			case 'u', 'U':
				width := 4
				if s[i] == 'U' {
					width = 8
				}
				if i+width >= len(s) {
					return "", "", fmt.Errorf("truncated \\%c escape", s[i])
				}
				code, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
				if err != nil {
					return "", "", fmt.Errorf("invalid \\%c escape: %w", s[i], err)
				}
				if !utf8.ValidRune(rune(code)) {
					return "", "", fmt.Errorf("escape \\%c%0*X is not a valid rune", s[i], width, code)
				}
				sb.WriteRune(rune(code))
				i += width
			default:
				return "", "", fmt.Errorf("unknown escape \\%c", s[i])
			}
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", "", fmt.Errorf("unterminated literal")
}

func isTermBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '.', ';', ',', ')', '}':
		return true
	}
	return false
}

func isAlphaNum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
