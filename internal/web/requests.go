package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabledit/internal/editor"
	"github.com/JonMunkholm/tabledit/internal/table"
)

// maxParamBody bounds JSON parameter bodies.
const maxParamBody = 1 << 20

// sortRequest is the body of POST /sort.
type sortRequest struct {
	Column    string `json:"column" validate:"required"`
	Ascending *bool  `json:"ascending"`
}

// fillRequest is the body of POST /fill-missing. Value is only used by the
// "value" method.
type fillRequest struct {
	Method string       `json:"method" validate:"required"`
	Value  *table.Value `json:"value"`
}

// chartRequest is the body of POST /chart. YColumn is optional for bar and
// pie charts.
type chartRequest struct {
	ChartType string `json:"chart_type" validate:"required"`
	XColumn   string `json:"x_column" validate:"required"`
	YColumn   string `json:"y_column"`
}

// readBody returns the request body, at most maxParamBody bytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxParamBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", errInvalidRequest, maxParamBody)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// decodeRequest decodes a JSON body into v and runs its validate tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := render.DecodeJSON(bytes.NewReader(body), v); err != nil {
		return &editor.ParseError{Input: "request body", Err: fmt.Errorf("malformed json: %w", err)}
	}
	if err := editor.ValidateStruct(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}

// parseIntParam parses a non-negative integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// parseFormat reads ?format= for downloads. Empty means CSV.
func parseFormat(r *http.Request) (table.Format, error) {
	switch f := table.Format(r.URL.Query().Get("format")); f {
	case "", table.FormatCSV:
		return table.FormatCSV, nil
	case table.FormatXLSX:
		return table.FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", table.ErrUnsupportedFormat, f)
	}
}
