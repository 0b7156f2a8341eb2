// Package editor implements the table transformations offered to a session:
// deduplication, rule filtering, row insertion and deletion, null removal,
// sorting, column renaming, missing value filling, and chart building.
//
// Every transformation is pure with respect to its input table and returns a
// Result. On success the Result carries the new table and one entry has been
// appended to the editor's log. On failure it carries the error and the input
// table, untouched, and the log is not modified (the chart quirk described on
// CreateChart is the one exception).
package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/tabledit/internal/table"
)

// Log actions, one per operation.
const (
	ActionRemoveDuplicates = "remove_duplicates"
	ActionApplyRules       = "apply_rules"
	ActionAddOrDeleteRows  = "add_or_delete_rows"
	ActionRemoveEmptyRows  = "remove_empty_rows"
	ActionSortData         = "sort_data"
	ActionRenameColumns    = "rename_columns"
	ActionFillMissing      = "fill_missing_values"
	ActionCreateChart      = "create_chart"
)

// Result is the outcome of one transformation.
type Result struct {
	Table *table.Table
	Err   error
}

// OK reports whether the transformation succeeded.
func (r Result) OK() bool { return r.Err == nil }

func ok(t *table.Table) Result { return Result{Table: t} }

func failed(t *table.Table, err error) Result { return Result{Table: t, Err: err} }

// Editor applies transformations and records an audit log. One Editor serves
// one session. It is safe for concurrent use, but operations on the same
// table are expected to be issued in sequence by the caller.
type Editor struct {
	mu     sync.Mutex
	log    []LogEntry
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithClock sets the time source used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New returns an Editor with an empty log.
func New(opts ...Option) *Editor {
	e := &Editor{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// record appends a log entry and returns a copy of it.
func (e *Editor) record(action, details string) LogEntry {
	entry := LogEntry{Action: action, Details: details, CreatedAt: e.now().UTC()}

	e.mu.Lock()
	e.log = append(e.log, entry)
	e.mu.Unlock()

	e.logger.Debug("operation logged", "action", action, "details", details)
	return entry
}

// SaveLog returns a copy of the accumulated log, most recent last.
func (e *Editor) SaveLog() []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]LogEntry, len(e.log))
	copy(out, e.log)
	return out
}

// LogLen returns the number of log entries.
func (e *Editor) LogLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.log)
}
