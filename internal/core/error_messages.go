package core

// error_messages.go maps technical errors to user-facing messages with
// support codes.
//
// # Error Codes Reference
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Patterns: "file too large"
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Patterns: "invalid csv"
//	FILE003 - Invalid Excel: File is not a readable .xlsx workbook
//	          Patterns: "invalid excel"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The uploaded file has no header row
//	          Patterns: "empty file"
//	FILE006 - Unsupported type: Only .csv and .xlsx are accepted
//	          Patterns: "unsupported file type"
//
// # Parameter Errors (PRM001-PRM099)
//
//	PRM001 - Malformed JSON: A rules, operations or mapping parameter is not valid JSON
//	         Patterns: "malformed json"
//	PRM002 - Invalid request: A request body is missing required fields
//	         Patterns: "invalid request"
//
// # Operation Errors (OPS001-OPS099)
//
// The table is left exactly as it was before the failed operation.
//
//	OPS001 - Column not found
//	         Patterns: "column not found"
//	OPS002 - Incomparable values: a comparison or sort mixed text and numbers
//	         Patterns: "not comparable"
//	OPS003 - Invalid row operation
//	         Patterns: "invalid row operation"
//	OPS004 - Rename collision
//	         Patterns: "rename collision"
//	OPS005 - Invalid rule
//	         Patterns: "invalid rule"
//	OPS006 - Non-numeric column used as a chart value
//	         Patterns: "not numeric"
//
// # Chart Errors (CHT001-CHT099)
//
//	CHT001 - Invalid chart: unknown chart type or line chart without a y column
//	         Patterns: "invalid chart type"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found (closed or expired)
//	         Patterns: "session not found"
//	SES002 - Too many open sessions
//	         Patterns: "too many sessions"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads being parsed
//	         Patterns: "too many concurrent uploads"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones. When a
// user reports ERR000, check the server log for the original error; it is
// logged with the request id.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file or remove unused columns", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated with a header row and consistent quoting", "FILE002"}},
	{"invalid excel", UserMessage{"File is not a readable Excel workbook", "Save the file as .xlsx and try again", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV or Excel file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a file with a header row", "FILE005"}},
	{"unsupported file type", UserMessage{"Unsupported file type", "Upload a .csv or .xlsx file", "FILE006"}},

	// Parameter errors
	{"malformed json", UserMessage{"The parameters are not valid JSON", "Check brackets, quotes and commas, then run the operation again", "PRM001"}},
	{"invalid request", UserMessage{"The request is missing required fields", "Check the request body and try again", "PRM002"}},

	// Operation errors
	{"column not found", UserMessage{"Column not found", "Check the column name; names are case-sensitive", "OPS001"}},
	{"not comparable", UserMessage{"Values of different types cannot be compared", "Compare numeric columns with numbers and text columns with text", "OPS002"}},
	{"invalid row operation", UserMessage{"A row operation is invalid", "Adds need row_data; deletes need an integer index", "OPS003"}},
	{"rename collision", UserMessage{"Renaming would produce duplicate or empty column names", "Choose unique, non-empty column names", "OPS004"}},
	{"invalid rule", UserMessage{"A rule is incomplete", "Each rule needs a column, a condition and a value", "OPS005"}},
	{"not numeric", UserMessage{"The selected column is not numeric", "Choose a numeric column for the y axis", "OPS006"}},

	// Chart errors
	{"invalid chart type", UserMessage{"Invalid chart type or missing column(s)", "Please check your inputs; line charts need a y column", "CHT001"}},

	// Session errors
	{"session not found", UserMessage{"Editing session not found", "The session may have expired. Please upload the file again", "SES001"}},
	{"too many sessions", UserMessage{"Too many open editing sessions", "Close an existing session or try again later", "SES002"}},

	// Upload errors
	{"too many concurrent uploads", UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},

	// Rate limiting
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
