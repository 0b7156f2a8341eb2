// Package table holds the in-memory dataset edited by a session: an ordered
// set of uniquely named columns and rows of scalar cells.
//
// Tables are values. Nothing in this module mutates a Table after New returns
// it; transformations build a new Table and may share untouched rows with the
// old one.
package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrColumnNotFound is returned when an operation names a column the table does not have.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when two columns would share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrIncomparable is returned when values of different families are ordered.
	ErrIncomparable = errors.New("values are not comparable")

	// ErrRowWidth is returned when a row does not have one cell per column.
	ErrRowWidth = errors.New("row width does not match columns")
)

// Table is an ordered sequence of rows sharing one column set.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New builds a table. It takes ownership of columns and rows; callers must
// not modify them afterwards.
func New(columns []string, rows [][]Value) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, i, len(r), len(columns))
		}
	}
	return &Table{columns: columns, index: index, rows: rows}, nil
}

// MustNew is New for fixtures and literals. It panics on error.
func MustNew(columns []string, rows [][]Value) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from row mappings. Columns are taken in the given
// order; keys missing from a record become null.
func FromRecords(columns []string, records []map[string]Value) (*Table, error) {
	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		rows[i] = row
	}
	return New(columns, rows)
}

// Columns returns a copy of the column names in display order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Lookup returns the position of a column or ErrColumnNotFound.
func (t *Table) Lookup(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return i, nil
}

// Row returns the cells of row i. The slice is shared and must not be modified.
func (t *Table) Row(i int) []Value { return t.rows[i] }

// Rows returns the row slices. They are shared and must not be modified.
func (t *Table) Rows() [][]Value { return t.rows }

// Cell returns the value at row i of the named column.
func (t *Table) Cell(i int, column string) (Value, error) {
	j, err := t.Lookup(column)
	if err != nil {
		return Null(), err
	}
	return t.rows[i][j], nil
}

// Column returns a copy of one column's values in row order.
func (t *Table) Column(name string) ([]Value, error) {
	j, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Record returns row i as a column -> value mapping.
func (t *Table) Record(i int) map[string]Value {
	rec := make(map[string]Value, len(t.columns))
	for j, c := range t.columns {
		rec[c] = t.rows[i][j]
	}
	return rec
}

// WithRows returns a table with the same columns and the given rows.
func (t *Table) WithRows(rows [][]Value) *Table {
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Slice returns rows [offset, offset+limit) as a new table. A non-positive
// limit means "to the end".
func (t *Table) Slice(offset, limit int) *Table {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.rows) {
		offset = len(t.rows)
	}
	end := len(t.rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return t.WithRows(t.rows[offset:end])
}

// RowKey returns a string identifying the full contents of row i. Two rows
// have the same key exactly when every cell is Equal.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, v := range t.rows[i] {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(v.key())
	}
	return b.String()
}

// Equal reports whether two tables hold the same rows in the same order. Column
// order does not matter; column names do.
func (t *Table) Equal(o *Table) bool {
	if t.Width() != o.Width() || t.Len() != o.Len() {
		return false
	}
	perm := make([]int, len(t.columns))
	for j, c := range t.columns {
		k, ok := o.index[c]
		if !ok {
			return false
		}
		perm[j] = k
	}
	for i := range t.rows {
		for j, v := range t.rows[i] {
			if !v.Equal(o.rows[i][perm[j]]) {
				return false
			}
		}
	}
	return true
}

type tableJSON struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// MarshalJSON encodes the table as {"columns": [...], "rows": [[...], ...]}.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = [][]Value{}
	}
	return json.Marshal(tableJSON{Columns: t.columns, Rows: rows})
}
