package editor

import (
	"errors"
	"fmt"

	"github.com/google/btree"

	"github.com/JonMunkholm/tabledit/internal/table"
)

// Fill methods.
const (
	FillForward  = "ffill"
	FillBackward = "bfill"
	FillValue    = "value"
)

// sortItem is one row positioned in the sort index.
type sortItem struct {
	key table.Value
	pos int
	row []table.Value
}

// SortData orders rows by one column: numbers and bools numerically, strings
// lexicographically. Nulls go last in both directions and ties keep their
// input order. A column mixing strings with numbers cannot be sorted.
func (e *Editor) SortData(t *table.Table, column string, ascending bool) Result {
	j, err := t.Lookup(column)
	if err != nil {
		return failed(t, opError(ActionSortData, err))
	}

	var first table.Value
	for _, row := range t.Rows() {
		v := row[j]
		if v.IsNull() {
			continue
		}
		if first.IsNull() {
			first = v
			continue
		}
		if _, err := table.Compare(first, v); err != nil {
			return failed(t, opError(ActionSortData, fmt.Errorf("column %q: %w", column, err)))
		}
	}

	index := btree.NewG(32, func(a, b sortItem) bool {
		switch {
		case a.key.IsNull() && b.key.IsNull():
			return a.pos < b.pos
		case a.key.IsNull():
			return false
		case b.key.IsNull():
			return true
		}
		c, _ := table.Compare(a.key, b.key)
		if c != 0 {
			if ascending {
				return c < 0
			}
			return c > 0
		}
		return a.pos < b.pos
	})
	for i, row := range t.Rows() {
		index.ReplaceOrInsert(sortItem{key: row[j], pos: i, row: row})
	}

	sorted := make([][]table.Value, 0, t.Len())
	index.Ascend(func(it sortItem) bool {
		sorted = append(sorted, it.row)
		return true
	})

	order := "ascending"
	if !ascending {
		order = "descending"
	}
	e.record(ActionSortData, fmt.Sprintf("Sorted data by %s in %s order.", column, order))
	return ok(t.WithRows(sorted))
}

// RenameColumns renames columns per mapping. Names not in the table are
// ignored. Renaming fails when two columns would end up with the same name or
// a target name is empty.
func (e *Editor) RenameColumns(t *table.Table, mapping ColumnMapping) Result {
	lookup := make(map[string]string, len(mapping))
	for _, r := range mapping {
		if r.To == "" {
			return failed(t, opError(ActionRenameColumns, fmt.Errorf("%w: new name for %q is empty", ErrRenameCollision, r.From)))
		}
		lookup[r.From] = r.To
	}

	columns := t.Columns()
	for j, c := range columns {
		if to, ok := lookup[c]; ok {
			columns[j] = to
		}
	}

	out, err := table.New(columns, t.Rows())
	if err != nil {
		if errors.Is(err, table.ErrDuplicateColumn) {
			err = fmt.Errorf("%w: %v", ErrRenameCollision, err)
		}
		return failed(t, opError(ActionRenameColumns, err))
	}

	e.record(ActionRenameColumns, fmt.Sprintf("Renamed columns: %s.", mustJSON(mapping)))
	return ok(out)
}

// FillMissingValues replaces nulls column by column. ffill carries the last
// non-null value down, bfill carries the next non-null value up, and value
// writes the given literal. value without a literal, or an unknown method,
// leaves the table as it is; the call is still logged.
func (e *Editor) FillMissingValues(t *table.Table, method string, value *table.Value) Result {
	out := t
	switch {
	case method == FillForward:
		out = fillForward(t)
	case method == FillBackward:
		out = fillBackward(t)
	case method == FillValue && value != nil && !value.IsNull():
		out = fillConstant(t, *value)
	}

	e.record(ActionFillMissing, fmt.Sprintf("Filled missing values using %s method.", method))
	return ok(out)
}

func fillForward(t *table.Table) *table.Table {
	rows := make([][]table.Value, t.Len())
	last := make([]table.Value, t.Width())
	for i, row := range t.Rows() {
		rows[i] = fillRow(row, last)
		copy(last, rows[i])
	}
	return t.WithRows(rows)
}

func fillBackward(t *table.Table) *table.Table {
	rows := make([][]table.Value, t.Len())
	next := make([]table.Value, t.Width())
	src := t.Rows()
	for i := len(src) - 1; i >= 0; i-- {
		rows[i] = fillRow(src[i], next)
		copy(next, rows[i])
	}
	return t.WithRows(rows)
}

func fillConstant(t *table.Table, v table.Value) *table.Table {
	rows := make([][]table.Value, t.Len())
	fill := make([]table.Value, t.Width())
	for j := range fill {
		fill[j] = v
	}
	for i, row := range t.Rows() {
		rows[i] = fillRow(row, fill)
	}
	return t.WithRows(rows)
}

// fillRow returns row with each null replaced by the same position in from.
// Rows without nulls are shared, not copied.
func fillRow(row, from []table.Value) []table.Value {
	var out []table.Value
	for j, v := range row {
		if !v.IsNull() || from[j].IsNull() {
			continue
		}
		if out == nil {
			out = append([]table.Value(nil), row...)
		}
		out[j] = from[j]
	}
	if out == nil {
		return row
	}
	return out
}
