package editor

// params.go decodes the JSON parameters of apply_rules, add_or_delete_rows and
// rename_columns. Object key order is significant for row_data (it decides the
// order of new columns) and for column mappings (it is echoed in the log), so
// both are read token by token instead of into Go maps.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/JonMunkholm/tabledit/internal/table"
)

// Rule conditions.
const (
	GreaterThan = "greater_than"
	LessThan    = "less_than"
	Equals      = "equals"
)

// Row operation actions.
const (
	RowAdd    = "add"
	RowDelete = "delete"
)

// Rule is a single column / comparator / value filter. A missing or null
// Value compares as null.
type Rule struct {
	Column    string       `json:"column" validate:"required"`
	Condition string       `json:"condition" validate:"required"`
	Value     *table.Value `json:"value"`
}

// Field is one column/value pair of row_data.
type Field struct {
	Column string
	Value  table.Value
}

// RowData is an ordered column -> value mapping.
type RowData []Field

// RowOperation is an add or delete instruction.
type RowOperation struct {
	Action  string       `json:"action" validate:"required"`
	RowData RowData      `json:"row_data,omitempty"`
	Index   *table.Value `json:"index,omitempty"`
}

// Rename maps one existing column name to a new one.
type Rename struct {
	From string
	To   string
}

// ColumnMapping is an ordered old name -> new name mapping.
type ColumnMapping []Rename

// ParseRules decodes a JSON array of rules.
func ParseRules(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := json2.Unmarshal(data, &rules); err != nil {
		return nil, &ParseError{Input: "rules", Err: malformed(err)}
	}
	return rules, nil
}

// ParseRowOperations decodes a JSON array of row operations.
func ParseRowOperations(data []byte) ([]RowOperation, error) {
	var ops []RowOperation
	if err := json2.Unmarshal(data, &ops); err != nil {
		return nil, &ParseError{Input: "operations", Err: malformed(err)}
	}
	return ops, nil
}

// ParseColumnMapping decodes a JSON object of old -> new column names.
func ParseColumnMapping(data []byte) (ColumnMapping, error) {
	var m ColumnMapping
	if err := json2.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Input: "column mapping", Err: malformed(err)}
	}
	if m == nil {
		return nil, &ParseError{Input: "column mapping", Err: errors.New("malformed json: expected an object")}
	}
	return m, nil
}

func malformed(err error) error {
	return fmt.Errorf("malformed json: %w", err)
}

// UnmarshalJSON reads an object, keeping key order.
func (d *RowData) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}
	out := RowData{}
	err := decodeObject(data, func(name string, raw jsontext.Value) error {
		var v table.Value
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("row_data %q: %w", name, err)
		}
		out = append(out, Field{Column: name, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON writes an object in insertion order.
func (d RowData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, f.Column, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of string values, keeping key order.
func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}
	out := ColumnMapping{}
	err := decodeObject(data, func(name string, raw jsontext.Value) error {
		var to string
		if err := json.Unmarshal(raw, &to); err != nil {
			return fmt.Errorf("new name for %q must be a string", name)
		}
		out = append(out, Rename{From: name, To: to})
		return nil
	})
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalJSON writes the mapping as an object in insertion order.
func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, r.From, r.To); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeObject walks the members of a JSON object in document order.
// Duplicate names are rejected by the decoder.
func decodeObject(data []byte, member func(name string, raw jsontext.Value) error) error {
	dec := jsontext.NewDecoder(bytes.NewReader(data))

	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	if tok.Kind() != '{' {
		return fmt.Errorf("expected an object, got %s", tok.Kind())
	}
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return err
		}
		// tok is only valid until the next read
		name := tok.String()
		raw, err := dec.ReadValue()
		if err != nil {
			return err
		}
		if err := member(name, raw); err != nil {
			return err
		}
	}
	if _, err := dec.ReadToken(); err != nil {
		return err
	}
	return nil
}

func writeMember(buf *bytes.Buffer, name string, v any) error {
	key, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// mustJSON renders v for log details. Parameters here always marshal.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
