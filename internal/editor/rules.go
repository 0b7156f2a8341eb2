package editor

import (
	"fmt"

	"github.com/SierraSoftworks/connor"

	"github.com/JonMunkholm/tabledit/internal/table"
)

// connor operators for each rule condition.
var conditionOps = map[string]string{
	GreaterThan: "$gt",
	LessThan:    "$lt",
	Equals:      "$eq",
}

// ApplyRules filters t by each rule in turn; every rule sees the table left
// by the previous one. Nulls never satisfy a rule, so equals null keeps no
// rows. A rule naming a missing column, or ordering a column against null or
// a value of another type, fails the whole call. equals across types matches
// nothing. Unknown conditions leave the table as it is.
func (e *Editor) ApplyRules(t *table.Table, rules []Rule) Result {
	for i := range rules {
		if err := validate.Struct(&rules[i]); err != nil {
			return failed(t, opError(ActionApplyRules, fmt.Errorf("%w %d: %s", ErrInvalidRule, i, describeValidation(err))))
		}
	}

	current := t
	for _, rule := range rules {
		next, err := applyRule(current, rule)
		if err != nil {
			return failed(t, opError(ActionApplyRules, err))
		}
		current = next
	}

	e.record(ActionApplyRules, fmt.Sprintf("Applied rules: %s. Remaining rows: %d", mustJSON(nonNil(rules)), current.Len()))
	return ok(current)
}

func applyRule(t *table.Table, rule Rule) (*table.Table, error) {
	j, err := t.Lookup(rule.Column)
	if err != nil {
		return nil, err
	}

	op, known := conditionOps[rule.Condition]
	if !known {
		return t, nil
	}

	want := table.Null()
	if rule.Value != nil {
		want = *rule.Value
	}
	if op != "$eq" {
		if want.IsNull() {
			return nil, fmt.Errorf("%w: cannot order column %q against null", table.ErrIncomparable, rule.Column)
		}
		for _, row := range t.Rows() {
			if row[j].IsNull() {
				continue
			}
			if _, err := table.Compare(row[j], want); err != nil {
				return nil, fmt.Errorf("column %q: %w", rule.Column, err)
			}
		}
	}

	cond := map[string]interface{}{
		"value": map[string]interface{}{op: matchOperand(want)},
	}

	kept := make([][]table.Value, 0, t.Len())
	for _, row := range t.Rows() {
		cell := row[j]
		if cell.IsNull() || want.IsNull() {
			continue
		}
		if op == "$eq" && !sameFamily(cell, want) {
			continue
		}
		match, err := matches(cond, op, cell, want)
		if err != nil {
			return nil, fmt.Errorf("match column %q: %w", rule.Column, err)
		}
		if match {
			kept = append(kept, row)
		}
	}
	return t.WithRows(kept), nil
}

// matches evaluates one cell. connor handles numeric comparisons and
// equality; strings are ordered byte-wise with table.Compare.
func matches(cond map[string]interface{}, op string, cell, want table.Value) (bool, error) {
	if op != "$eq" && !cell.Numeric() {
		c, err := table.Compare(cell, want)
		if err != nil {
			return false, err
		}
		if op == "$gt" {
			return c > 0, nil
		}
		return c < 0, nil
	}
	return connor.Match(cond, map[string]interface{}{"value": matchOperand(cell)})
}

// matchOperand maps a cell onto the types connor compares: numbers and
// bools as float64, strings as string.
func matchOperand(v table.Value) interface{} {
	if f, ok := v.Float(); ok {
		return f
	}
	s, _ := v.Str()
	return s
}

func sameFamily(a, b table.Value) bool {
	return a.Numeric() == b.Numeric()
}
