package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindString
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a single table cell: null, number, bool, or string.
// The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// FromAny converts a decoded JSON scalar (nil, float64, int, bool, string) to a Value.
// Objects and arrays are rejected.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Number(f), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	default:
		return Null(), fmt.Errorf("unsupported cell value of type %T", v)
	}
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric value. Bools count as 0 and 1.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Str returns the string payload of a string value.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Numeric reports whether v participates in numeric ordering (numbers and bools).
func (v Value) Numeric() bool {
	return v.kind == KindNumber || v.kind == KindBool
}

// Any returns v as a plain Go value (nil, float64, bool, or string).
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindString:
		return v.str
	default:
		return nil
	}
}

// Equal reports whether two values are identical. Null equals null.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.str == o.str
	default:
		return true
	}
}

// String formats the value the way it is written to CSV: nulls are empty,
// integral numbers have no decimal part, and bools are True/False.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindString:
		return v.str
	default:
		return ""
	}
}

// key returns a canonical encoding used for row identity.
func (v Value) key() string {
	switch v.kind {
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	case KindString:
		return "s:" + v.str
	default:
		return "-"
	}
}

// MarshalJSON encodes v as a JSON scalar. Infinite numbers become strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return json.Marshal(formatNumber(v.num))
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return ""
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', 0, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// Compare orders two non-null values of the same family: numbers and bools
// numerically, strings lexicographically. Mixing families is an error.
func Compare(a, b Value) (int, error) {
	if a.Numeric() && b.Numeric() {
		x, _ := a.Float()
		y, _ := b.Float()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	if a.kind == KindString && b.kind == KindString {
		switch {
		case a.str < b.str:
			return -1, nil
		case a.str > b.str:
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s and %s", ErrIncomparable, a.kind, b.kind)
}
