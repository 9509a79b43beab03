package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Triple is one (subject, predicate, object) fact. The graph is a set of
// triples: two triples with identical rendered forms are the same triple.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String returns the N-Triples line form, including the terminating dot.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// ParseTriple parses one N-Triples statement line.
func ParseTriple(line string) (Triple, error) {
	s, rest, err := ScanTerm(line)
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}
	p, rest, err := ScanTerm(rest)
	if err != nil {
		return Triple{}, fmt.Errorf("predicate: %w", err)
	}
	o, rest, err := ScanTerm(rest)
	if err != nil {
		return Triple{}, fmt.Errorf("object: %w", err)
	}
	rest = strings.TrimSpace(rest)
	if rest != "." {
		return Triple{}, fmt.Errorf("expected terminating '.', got %q", truncate(rest))
	}
	return Triple{Subject: s, Predicate: p, Object: o}, nil
}

// ReadTriples parses an N-Triples document. Empty lines and comment lines
// starting with '#' are skipped. A malformed line aborts the read with the
// line number in the error.
func ReadTriples(r io.Reader) ([]Triple, error) {
	var triples []Triple
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, err := ParseTriple(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		triples = append(triples, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read triples: %w", err)
	}
	return triples, nil
}

// WriteTriples serializes triples as an N-Triples document, one per line.
func WriteTriples(w io.Writer, triples []Triple) error {
	bw := bufio.NewWriter(w)
	for _, t := range triples {
		if _, err := bw.WriteString(t.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
