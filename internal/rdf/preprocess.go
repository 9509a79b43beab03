package rdf

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Crawled N-Quads are frequently malformed in recurring ways: named-graph
// annotations that the cleanup pipeline does not want, blank nodes that must
// become stable identifiers, inline JSON-LD fragments masquerading as IRIs,
// and schema.org IRIs in half a dozen spellings. Preprocess repairs these
// line by line before the document is parsed as N-Triples.

var (
	jsonIRIRe = regexp.MustCompile(`<[^>]*\{[^>]*\}[^>]*>`)
	bnodeRe   = regexp.MustCompile(`_:([A-Za-z0-9]+)`)
	schemaRe  = regexp.MustCompile(`<https?://schema\.org/([^>]*)>`)
)

// CleanLine normalizes one raw N-Quads line:
//
//   - drops U+FFFD replacement characters left by lossy decoding
//   - normalizes the line to Unicode NFC
//   - rewrites schema.org IRIs to the canonical http:// scheme with a
//     lowercased term name
//   - requotes inline JSON-LD fragments wrapped in angle brackets so they
//     parse as literals instead of malformed IRIs
//   - rewrites the crawler artifact <@type:> to the rdf:type IRI
//   - strips a trailing named-graph term, turning the quad into a triple
//   - skolemizes blank node labels into urn:skolem IRIs
func CleanLine(line string) string {
	line = strings.ReplaceAll(line, "�", "")
	line = norm.NFC.String(line)

	line = schemaRe.ReplaceAllStringFunc(line, func(m string) string {
		sub := schemaRe.FindStringSubmatch(m)
		return "<http://schema.org/" + strings.ToLower(sub[1]) + ">"
	})

	if strings.Contains(line, "}") {
		if m := jsonIRIRe.FindString(line); m != "" {
			repaired := strings.NewReplacer("<", `"`, ">", `"`).Replace(m)
			line = strings.Replace(line, m, repaired, 1)
		}
	}

	if strings.Contains(line, "<@type:>") {
		line = strings.ReplaceAll(line, "@type:", string(RDFType))
	}

	line = stripGraphName(line)

	line = bnodeRe.ReplaceAllStringFunc(line, func(m string) string {
		return Skolemize(BlankNode(m[2:])).String()
	})

	return line
}

// stripGraphName drops the fourth term of a quad statement, turning it into
// a triple. Lines that do not parse as exactly four terms pass through
// untouched, so plain triples keep their object.
func stripGraphName(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasSuffix(trimmed, ".") {
		return line
	}
	body := strings.TrimSuffix(trimmed, ".")

	rest := body
	var starts []int
	for {
		t := strings.TrimLeft(rest, " \t")
		if t == "" {
			break
		}
		if len(starts) == 4 {
			return line
		}
		starts = append(starts, len(body)-len(t))
		var err error
		_, rest, err = ScanTerm(t)
		if err != nil {
			return line
		}
	}
	if len(starts) != 4 {
		return line
	}
	return strings.TrimRight(body[:starts[3]], " \t") + " ."
}

// Preprocess reads a raw N-Quads document from r and writes the cleaned
// N-Triples document to w, applying CleanLine to every line.
func Preprocess(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	bw := bufio.NewWriter(w)

	for sc.Scan() {
		if _, err := bw.WriteString(CleanLine(sc.Text())); err != nil {
			return fmt.Errorf("preprocess: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("preprocess: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	return bw.Flush()
}
