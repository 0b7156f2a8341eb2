package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChart is returned for an unknown chart type or a line chart without a y column.
	ErrInvalidChart = errors.New("invalid chart type or missing column(s)")

	// ErrInvalidRule is returned when a rule is structurally incomplete.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrInvalidRowOperation is returned for an add without row_data or a non-integer delete index.
	ErrInvalidRowOperation = errors.New("invalid row operation")

	// ErrRenameCollision is returned when renaming would leave two columns with the same name.
	ErrRenameCollision = errors.New("rename collision")

	// ErrNonNumeric is returned when a chart needs numbers and the column holds something else.
	ErrNonNumeric = errors.New("column is not numeric")
)

// ParseError reports malformed input: an uploaded file or a JSON parameter.
// The requested operation is skipped and the table is unchanged.
type ParseError struct {
	Input string // what was being parsed: "file", "rules", "operations", "column mapping"
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// OperationError reports a failure inside a transformation. The table the
// operation was called with is returned unchanged.
type OperationError struct {
	Op  string // the log action of the failed operation
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func opError(op string, err error) error {
	return &OperationError{Op: op, Err: err}
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsOperationError reports whether err is or wraps an *OperationError.
func IsOperationError(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}
