package compiler

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// CompilePlan parses a CUE value into a Plan.
//
// The CUE value should be the plan struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`plan "books" { ... }`)
//	p, err := CompilePlan(v.LookupPath(cue.ParsePath(`plan."books"`)))
func CompilePlan(v cue.Value) (*Plan, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Plan{Fixpoint: true}

	// Plan name comes from the struct label, e.g. `plan "books" { ... }`.
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	if dsVal := v.LookupPath(cue.ParsePath("dataset")); dsVal.Exists() {
		ds, err := dsVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Dataset = ds
	}

	if rtVal := v.LookupPath(cue.ParsePath("routines")); rtVal.Exists() {
		iter, err := rtVal.List()
		if err != nil {
			return nil, &CompileError{
				Field:   "routines",
				Message: "routines must be a list of file paths",
				Pos:     rtVal.Pos(),
			}
		}
		for iter.Next() {
			path, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			p.Routines = append(p.Routines, path)
		}
	}

	if fpVal := v.LookupPath(cue.ParsePath("fixpoint")); fpVal.Exists() {
		fp, err := fpVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Fixpoint = fp
	}

	if mpVal := v.LookupPath(cue.ParsePath("max_passes")); mpVal.Exists() {
		mp, err := mpVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if mp < 1 {
			return nil, &CompileError{
				Field:   "max_passes",
				Message: "max_passes must be at least 1",
				Pos:     mpVal.Pos(),
			}
		}
		p.MaxPasses = int(mp)
	}

	merges, err := parseMerges(v)
	if err != nil {
		return nil, err
	}
	p.Merges = merges

	if len(p.Merges) == 0 && len(p.Routines) == 0 {
		return nil, &CompileError{
			Field:   "merge",
			Message: "plan declares no merge rules and no routines",
			Pos:     v.Pos(),
		}
	}

	return p, nil
}

// parseMerges extracts and validates the merge rule list.
func parseMerges(v cue.Value) ([]MergeRule, error) {
	mergeVal := v.LookupPath(cue.ParsePath("merge"))
	if !mergeVal.Exists() {
		return nil, nil
	}

	iter, err := mergeVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "merge",
			Message: "merge must be a list of rules",
			Pos:     mergeVal.Pos(),
		}
	}

	var rules []MergeRule
	for i := 0; iter.Next(); i++ {
		rule, err := parseMergeRule(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseMergeRule(v cue.Value, idx int) (MergeRule, error) {
	field := fmt.Sprintf("merge[%d]", idx)

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return MergeRule{}, &CompileError{
			Field:   field + ".type",
			Message: "type is required",
			Pos:     v.Pos(),
		}
	}
	typ, err := typeVal.String()
	if err != nil {
		return MergeRule{}, formatCUEError(err)
	}
	if err := checkIRI(typ); err != nil {
		return MergeRule{}, &CompileError{
			Field:   field + ".type",
			Message: err.Error(),
			Pos:     typeVal.Pos(),
		}
	}

	keysVal := v.LookupPath(cue.ParsePath("keys"))
	if !keysVal.Exists() {
		return MergeRule{}, &CompileError{
			Field:   field + ".keys",
			Message: "keys is required",
			Pos:     v.Pos(),
		}
	}
	keyIter, err := keysVal.List()
	if err != nil {
		return MergeRule{}, &CompileError{
			Field:   field + ".keys",
			Message: "keys must be a list of predicate IRIs",
			Pos:     keysVal.Pos(),
		}
	}
	var keys []string
	for keyIter.Next() {
		key, err := keyIter.Value().String()
		if err != nil {
			return MergeRule{}, formatCUEError(err)
		}
		if err := checkIRI(key); err != nil {
			return MergeRule{}, &CompileError{
				Field:   field + ".keys",
				Message: err.Error(),
				Pos:     keyIter.Value().Pos(),
			}
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return MergeRule{}, &CompileError{
			Field:   field + ".keys",
			Message: "at least one key predicate is required",
			Pos:     keysVal.Pos(),
		}
	}

	return MergeRule{Type: typ, Keys: keys}, nil
}

// checkIRI rejects strings that cannot appear inside <...> in a query.
func checkIRI(s string) error {
	if s == "" {
		return fmt.Errorf("IRI must not be empty")
	}
	if strings.ContainsAny(s, " \t\n\r<>\"{}|\\^`") {
		return fmt.Errorf("invalid IRI %q", s)
	}
	return nil
}

// LoadPlans loads a CUE file and compiles every entry under its top-level
// "plan" struct, in source order.
func LoadPlans(path string) ([]*Plan, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlans(src, path)
}

// ParsePlans compiles plan source text. The filename only labels error
// positions.
func ParsePlans(src []byte, path string) ([]*Plan, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	plansVal := value.LookupPath(cue.ParsePath("plan"))
	if !plansVal.Exists() {
		return nil, &CompileError{
			Field:   "plan",
			Message: fmt.Sprintf("no plan struct found in %s", path),
			Pos:     value.Pos(),
		}
	}

	iter, err := plansVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var plans []*Plan
	for iter.Next() {
		p, err := CompilePlan(iter.Value())
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if len(plans) == 0 {
		return nil, &CompileError{
			Field:   "plan",
			Message: fmt.Sprintf("plan struct in %s is empty", path),
			Pos:     plansVal.Pos(),
		}
	}
	return plans, nil
}
