package editor

import (
	"fmt"
	"math"

	"github.com/JonMunkholm/tabledit/internal/table"
)

// RemoveDuplicates drops rows that repeat an earlier row in every column.
func (e *Editor) RemoveDuplicates(t *table.Table) Result {
	seen := make(map[string]struct{}, t.Len())
	kept := make([][]table.Value, 0, t.Len())
	for i, row := range t.Rows() {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}

	removed := t.Len() - len(kept)
	e.record(ActionRemoveDuplicates, fmt.Sprintf("Removed %d duplicate rows.", removed))
	return ok(t.WithRows(kept))
}

// RemoveEmptyRows drops every row holding at least one null.
func (e *Editor) RemoveEmptyRows(t *table.Table) Result {
	kept := make([][]table.Value, 0, t.Len())
rows:
	for _, row := range t.Rows() {
		for _, v := range row {
			if v.IsNull() {
				continue rows
			}
		}
		kept = append(kept, row)
	}

	removed := t.Len() - len(kept)
	e.record(ActionRemoveEmptyRows, fmt.Sprintf("Removed %d empty rows.", removed))
	return ok(t.WithRows(kept))
}

// AddOrDeleteRows applies ops in order against the progressively modified
// table. Any failing operation discards the whole batch.
//
// An add appends one row built from RowData; columns it does not mention are
// null, and names the table lacks become new columns (null for existing rows).
// A delete removes the row at a position valid at that moment; out of range or
// missing indices are skipped. Unknown actions are ignored.
func (e *Editor) AddOrDeleteRows(t *table.Table, ops []RowOperation) Result {
	for i := range ops {
		if err := validate.Struct(&ops[i]); err != nil {
			return failed(t, opError(ActionAddOrDeleteRows, fmt.Errorf("%w %d: %s", ErrInvalidRowOperation, i, describeValidation(err))))
		}
	}

	columns := t.Columns()
	rows := append([][]table.Value(nil), t.Rows()...)

	for i, op := range ops {
		switch op.Action {
		case RowAdd:
			if op.RowData == nil {
				return failed(t, opError(ActionAddOrDeleteRows, fmt.Errorf("%w %d: add requires row_data", ErrInvalidRowOperation, i)))
			}
			columns, rows = appendRow(columns, rows, op.RowData)

		case RowDelete:
			if op.Index == nil || op.Index.IsNull() {
				continue
			}
			pos, err := rowIndex(*op.Index)
			if err != nil {
				return failed(t, opError(ActionAddOrDeleteRows, fmt.Errorf("%w %d: %v", ErrInvalidRowOperation, i, err)))
			}
			if pos < 0 || pos >= len(rows) {
				continue
			}
			rows = append(rows[:pos:pos], rows[pos+1:]...)
		}
	}

	out, err := table.New(columns, rows)
	if err != nil {
		return failed(t, opError(ActionAddOrDeleteRows, err))
	}

	e.record(ActionAddOrDeleteRows, fmt.Sprintf("Performed operations: %s. Final rows: %d", mustJSON(nonNil(ops)), out.Len()))
	return ok(out)
}

// appendRow widens the table for unseen columns and appends one row.
// Existing rows are copied when widened, never modified in place.
func appendRow(columns []string, rows [][]table.Value, data RowData) ([]string, [][]table.Value) {
	index := make(map[string]int, len(columns))
	for j, c := range columns {
		index[c] = j
	}

	added := 0
	for _, f := range data {
		if _, exists := index[f.Column]; !exists {
			index[f.Column] = len(columns)
			columns = append(columns, f.Column)
			added++
		}
	}
	if added > 0 {
		for i, r := range rows {
			wide := make([]table.Value, len(columns))
			copy(wide, r)
			rows[i] = wide
		}
	}

	row := make([]table.Value, len(columns))
	for _, f := range data {
		row[index[f.Column]] = f.Value
	}
	return columns, append(rows, row)
}

// rowIndex accepts integral numbers only.
func rowIndex(v table.Value) (int, error) {
	if v.Kind() != table.KindNumber {
		return 0, fmt.Errorf("index must be an integer, got %s", v.Kind())
	}
	f, _ := v.Float()
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("index must be an integer, got %s", v)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return -1, nil
	}
	return int(f), nil
}

// nonNil keeps an absent parameter list rendering as [] in log details.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
