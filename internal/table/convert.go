package table

// convert.go turns raw text cells from CSV or Excel into typed values.
//
// Typing happens per column, not per cell:
//   - cells matching a missing-value token become null
//   - a column where every remaining cell parses as a float is numeric
//   - otherwise a column of True/False literals is boolean
//   - anything else keeps every non-null cell as the original text

import (
	"fmt"
	"strconv"
)

// naTokens are the cell texts read as missing values.
var naTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNAToken reports whether s is read as a missing value.
func IsNAToken(s string) bool {
	_, ok := naTokens[s]
	return ok
}

// parseBoolLiteral accepts the spellings written by spreadsheet tools and dataframe libraries.
func parseBoolLiteral(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

// parseFloat accepts plain decimal and scientific notation, plus inf.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// InferColumn types one column of raw cells. Cells beyond len(raw) do not exist;
// callers pad short rows with "" before calling.
func InferColumn(raw []string) []Value {
	out := make([]Value, len(raw))

	numeric, boolean := true, true
	seen := false
	for _, s := range raw {
		if IsNAToken(s) {
			continue
		}
		seen = true
		if numeric {
			if _, ok := parseFloat(s); !ok {
				numeric = false
			}
		}
		if boolean {
			if _, ok := parseBoolLiteral(s); !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			break
		}
	}

	for i, s := range raw {
		if IsNAToken(s) {
			out[i] = Null()
			continue
		}
		switch {
		case seen && numeric:
			f, _ := parseFloat(s)
			out[i] = Number(f)
		case seen && boolean:
			b, _ := parseBoolLiteral(s)
			out[i] = Bool(b)
		default:
			out[i] = String(s)
		}
	}
	return out
}

// FromText builds a typed table from a header and raw text records. Short
// records are padded with missing values; long records are an error.
func FromText(header []string, records [][]string) (*Table, error) {
	width := len(header)
	cols := make([][]Value, width)
	raw := make([]string, len(records))
	for j := 0; j < width; j++ {
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			} else {
				raw[i] = ""
			}
		}
		cols[j] = InferColumn(raw)
	}

	rows := make([][]Value, len(records))
	for i, rec := range records {
		if len(rec) > width {
			return nil, fmt.Errorf("%w: record %d has %d fields, want %d", ErrRowWidth, i+1, len(rec), width)
		}
		row := make([]Value, width)
		for j := 0; j < width; j++ {
			row[j] = cols[j][i]
		}
		rows[i] = row
	}
	return New(header, rows)
}
