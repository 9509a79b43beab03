package compiler

import (
	"fmt"
	"strings"

	"github.com/bareyan/kg-explorer/internal/routine"
	"github.com/bareyan/kg-explorer/internal/sparql"
)

// mergeTemplate rewires references through the surviving entity. The pair
// selection guarantees s1 is the lexicographically smaller IRI, so s1
// survives: incoming references to s2 are retargeted first, then s2's
// outgoing statements move to s1.
const mergeTemplate = `DELETE { ?ref ?p {{s2}} }
INSERT { ?ref ?p {{s1}} }
WHERE { ?ref ?p {{s2}} };
DELETE { {{s2}} ?p ?o }
INSERT { {{s1}} ?p ?o }
WHERE { {{s2}} ?p ?o }`

// Generate compiles a plan's merge rules into a runnable routine file.
// Each rule becomes one templated merge step, in declaration order.
func Generate(p *Plan) (*routine.RoutineFile, error) {
	rf := &routine.RoutineFile{
		Name:  p.Name,
		Title: fmt.Sprintf("generated from plan %q", p.Name),
	}

	for i, rule := range p.Merges {
		step, err := generateMerge(rule, i)
		if err != nil {
			return nil, err
		}
		rf.Steps = append(rf.Steps, step)
	}

	return rf, nil
}

func generateMerge(rule MergeRule, idx int) (*routine.TemplatedMerge, error) {
	selection := mergeSelection(rule)

	sel, err := sparql.ParseSelect(selection)
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("merge[%d]", idx),
			Message: fmt.Sprintf("generated selection does not parse: %v", err),
		}
	}
	tmpl, err := sparql.ParseUpdates(mergeTemplate)
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("merge[%d]", idx),
			Message: fmt.Sprintf("generated template does not parse: %v", err),
		}
	}

	return &routine.TemplatedMerge{
		Name:            fmt.Sprintf("merge %s", localName(rule.Type)),
		Selection:       sel,
		Template:        tmpl,
		SelectionSource: selection,
		TemplateSource:  mergeTemplate,
	}, nil
}

// mergeSelection builds the duplicate-pair query for a rule. Two subjects
// of the rule's type pair up when they share a value on every key
// predicate; the filter fixes the orientation so each pair appears once.
func mergeSelection(rule MergeRule) string {
	var b strings.Builder
	b.WriteString("SELECT ?s1 ?s2 WHERE {\n")
	fmt.Fprintf(&b, "  ?s1 a <%s> .\n", rule.Type)
	fmt.Fprintf(&b, "  ?s2 a <%s> .\n", rule.Type)
	for i, key := range rule.Keys {
		fmt.Fprintf(&b, "  ?s1 <%s> ?k%d .\n", key, i)
		fmt.Fprintf(&b, "  ?s2 <%s> ?k%d .\n", key, i)
	}
	b.WriteString("  FILTER(STR(?s1) < STR(?s2))\n}")
	return b.String()
}

// localName extracts the fragment or last path segment of an IRI.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
