package routine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bareyan/kg-explorer/internal/sparql"
)

// AdvancedTag marks a section as a templated merge.
const AdvancedTag = "@advanced"

// Load parses routine source text into an ordered RoutineFile. Any
// malformed section fails the whole file with a ParseError naming the
// section and its line range; a template placeholder that the paired
// selection does not project fails with an UnboundPlaceholderError.
func Load(name, src string) (*RoutineFile, error) {
	rf := &RoutineFile{Name: name}

	lines := strings.Split(src, "\n")
	var (
		section   string
		advanced  bool
		startLine int
		body      []string
	)

	flush := func(endLine int) error {
		if section == "" {
			return nil
		}
		step, err := parseSection(name, section, advanced, strings.Join(body, "\n"), startLine, endLine)
		if err != nil {
			return err
		}
		rf.Steps = append(rf.Steps, step)
		return nil
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "###"):
			if section == "" && rf.Title == "" {
				rf.Title = strings.TrimSpace(strings.TrimPrefix(line, "###"))
				continue
			}
			body = append(body, raw)

		case strings.HasPrefix(line, "##"):
			if err := flush(i); err != nil {
				return nil, err
			}
			section = strings.TrimSpace(strings.TrimPrefix(line, "##"))
			advanced = strings.HasSuffix(section, AdvancedTag)
			if advanced {
				section = strings.TrimSpace(strings.TrimSuffix(section, AdvancedTag))
			}
			if section == "" {
				return nil, &ParseError{
					File: name, StartLine: i + 1, EndLine: i + 1,
					Err: errors.New("section header with empty name"),
				}
			}
			startLine = i + 1
			body = body[:0]

		default:
			if section != "" {
				body = append(body, raw)
			} else if line != "" {
				return nil, &ParseError{
					File: name, StartLine: i + 1, EndLine: i + 1,
					Err: fmt.Errorf("content before first section header: %q", line),
				}
			}
		}
	}
	if err := flush(len(lines)); err != nil {
		return nil, err
	}

	if len(rf.Steps) == 0 {
		return nil, &ParseError{File: name, StartLine: 1, EndLine: len(lines),
			Err: errors.New("routine file has no sections")}
	}
	return rf, nil
}

// LoadPath reads and parses a routine file from disk. The file's base name
// (without extension) becomes the RoutineFile name, and every step gets a
// "file::section" reference so runs can journal the step by name instead of
// by its raw statements.
func LoadPath(path string) (*RoutineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routine: %w", err)
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	rf, err := Load(name, string(data))
	if err != nil {
		return nil, err
	}
	for _, s := range rf.Steps {
		switch step := s.(type) {
		case *DirectRewrite:
			step.Ref = base + "::" + step.Name
		case *TemplatedMerge:
			step.Ref = base + "::" + step.Name
		}
	}
	return rf, nil
}

func parseSection(file, section string, advanced bool, body string, startLine, endLine int) (Step, error) {
	fail := func(err error) error {
		return &ParseError{
			File: file, Section: section,
			StartLine: startLine, EndLine: endLine,
			Err: relocate(err, startLine),
		}
	}

	if strings.TrimSpace(body) == "" {
		return nil, fail(errors.New("empty section body"))
	}

	if !advanced {
		updates, err := sparql.ParseUpdates(body)
		if err != nil {
			return nil, fail(err)
		}
		return &DirectRewrite{
			Name:       section,
			Statements: updates,
			Source:     strings.TrimSpace(body),
			StartLine:  startLine,
			EndLine:    endLine,
		}, nil
	}

	selSrc, tmplSrc, sepLine, ok := splitAdvanced(body)
	if !ok {
		return nil, fail(errors.New("advanced section is missing the lone '#' separator"))
	}

	sel, err := sparql.ParseSelect(selSrc)
	if err != nil {
		return nil, fail(err)
	}
	tmpl, err := sparql.ParseUpdates(tmplSrc)
	if err != nil {
		return nil, fail(relocate(err, sepLine)) // template lines start after the separator
	}

	projected := make(map[string]bool, len(sel.Vars))
	for _, v := range sel.Vars {
		projected[v] = true
	}
	for _, u := range tmpl {
		for _, ph := range sparql.UpdatePlaceholders(u) {
			if !projected[ph] {
				return nil, &UnboundPlaceholderError{Section: section, Placeholder: ph}
			}
		}
	}

	return &TemplatedMerge{
		Name:            section,
		Selection:       sel,
		Template:        tmpl,
		SelectionSource: strings.TrimSpace(selSrc),
		TemplateSource:  strings.TrimSpace(tmplSrc),
		StartLine:       startLine,
		EndLine:         endLine,
	}, nil
}

// splitAdvanced splits an advanced section body at the lone '#' line.
// Returns the selection part, the template part, and the separator's line
// offset within the body.
func splitAdvanced(body string) (sel, tmpl string, sepLine int, ok bool) {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == "#" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n"), i + 1, true
		}
	}
	return "", "", 0, false
}

// relocate shifts a sparql syntax error's fragment-relative line number to
// the routine file's coordinates.
func relocate(err error, offset int) error {
	var se *sparql.SyntaxError
	if errors.As(err, &se) {
		return &sparql.SyntaxError{Line: se.Line + offset, Msg: se.Msg}
	}
	return err
}
