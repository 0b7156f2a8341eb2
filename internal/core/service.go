package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tabledit/internal/chart"
	"github.com/JonMunkholm/tabledit/internal/editor"
	"github.com/JonMunkholm/tabledit/internal/logging"
	"github.com/JonMunkholm/tabledit/internal/table"
)

var (
	// ErrSessionNotFound is returned for unknown, closed or expired sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned by Open when MaxSessions are open.
	ErrTooManySessions = errors.New("too many sessions open")

	// ErrFileTooLarge is returned by Open when the upload exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned by Open when no file content was supplied.
	ErrNoFile = errors.New("no file provided")
)

// Defaults applied by NewService to zero Config fields.
const (
	DefaultMaxSessions = 100
	DefaultIdleTTL     = 30 * time.Minute
	DefaultMaxFileSize = 100 << 20
	DefaultPageSize    = 50
)

// ExportBaseName is the download name of an exported table, without extension.
const ExportBaseName = "modified_file"

// Config holds the service limits.
type Config struct {
	MaxSessions          int
	IdleTTL              time.Duration
	MaxFileSize          int64
	MaxConcurrentUploads int
	UploadWait           time.Duration
}

// Service owns the editing sessions. Each session holds the current table
// and one editor, whose log records every successful operation.
type Service struct {
	cfg     Config
	limiter *UploadLimiter
	metrics *Metrics
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the time source for session activity and log timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithMetrics sets the collectors. NewService creates its own otherwise.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service with no sessions.
func NewService(cfg Config, opts ...ServiceOption) *Service {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	s := &Service{
		cfg:      cfg,
		limiter:  NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.UploadWait),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Metrics returns the service collectors.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Open parses an uploaded file and starts a session for it. The format is
// chosen from the file extension. A file that cannot be parsed yields an
// *editor.ParseError and no session.
func (s *Service) Open(ctx context.Context, fileName string, r io.Reader) (info SessionInfo, err error) {
	logger := logging.FromContext(ctx)
	defer func() { s.metrics.observeUpload(err) }()

	if r == nil {
		return SessionInfo{}, ErrNoFile
	}
	if s.openCount() >= s.cfg.MaxSessions {
		return SessionInfo{}, ErrTooManySessions
	}

	if !s.limiter.TryAcquire() {
		logger.Debug("waiting for upload slot", "active", s.limiter.ActiveCount())
		if err := s.limiter.Acquire(ctx); err != nil {
			return SessionInfo{}, err
		}
	}
	defer s.limiter.Release()

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileSize+1))
	if err != nil {
		return SessionInfo{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return SessionInfo{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	if len(data) == 0 {
		return SessionInfo{}, &editor.ParseError{Input: "file", Err: table.ErrEmptyFile}
	}

	start := time.Now()
	t, err := table.Read(fileName, bytes.NewReader(data))
	if err != nil {
		return SessionInfo{}, &editor.ParseError{Input: "file", Err: err}
	}

	id := uuid.NewString()
	sess := &session{
		id:        id,
		fileName:  fileName,
		clientIP:  ClientIPFromContext(ctx),
		userAgent: UserAgentFromContext(ctx),
		createdAt: s.now().UTC(),
		logger:    logging.ForSession(id, fileName),
		table:     t,
	}
	sess.editor = editor.New(editor.WithClock(s.now), editor.WithLogger(sess.logger))
	sess.touch(s.now())

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return SessionInfo{}, ErrTooManySessions
	}
	s.sessions[id] = sess
	s.metrics.sessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	logger.Info("session opened",
		"session_id", id,
		"file_name", fileName,
		"bytes", len(data),
		"rows", t.Len(),
		"columns", t.Width(),
		"client_ip", sess.clientIP,
		"user_agent", sess.userAgent,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.info(), nil
}

func (s *Service) openCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// lookup returns the session and marks it used.
func (s *Service) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch(s.now())
	return sess, nil
}

// Info describes a session.
func (s *Service) Info(ctx context.Context, id string) (SessionInfo, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.info(), nil
}

// View returns rows [offset, offset+limit) of the current table. A
// non-positive limit means DefaultPageSize.
func (s *Service) View(ctx context.Context, id string, offset, limit int) (View, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return View{
		Session: sess.info(),
		Offset:  offset,
		Limit:   limit,
		Table:   sess.table.Slice(offset, limit),
	}, nil
}

// List returns every open session, oldest first.
func (s *Service) List() []SessionInfo {
	s.mu.RLock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(all))
	for _, sess := range all {
		sess.mu.Lock()
		infos = append(infos, sess.info())
		sess.mu.Unlock()
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Close discards a session.
func (s *Service) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.metrics.sessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	logging.FromContext(ctx).Info("session closed", "session_id", id)
	return nil
}

// ServiceStatus is reported by the health endpoint.
type ServiceStatus struct {
	Sessions    int                 `json:"sessions"`
	MaxSessions int                 `json:"max_sessions"`
	Uploads     UploadLimiterStatus `json:"uploads"`
}

// Status returns current session and upload slot usage.
func (s *Service) Status() ServiceStatus {
	return ServiceStatus{
		Sessions:    s.openCount(),
		MaxSessions: s.cfg.MaxSessions,
		Uploads:     s.limiter.Status(),
	}
}

// apply runs one editor operation against the session table. The table is
// replaced only when the operation succeeds.
func (s *Service) apply(ctx context.Context, id, action string, op func(*editor.Editor, *table.Table) editor.Result) (SessionInfo, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	res := op(sess.editor, sess.table)
	s.metrics.observeOperation(action, res.Err, time.Since(start))

	logger := logging.WithFields(ctx, "session_id", id, "action", action)
	if !res.OK() {
		logger.Warn("operation failed", "error", res.Err)
		return sess.info(), res.Err
	}

	before := sess.table.Len()
	sess.table = res.Table
	logger.Info("operation applied",
		"rows_before", before,
		"rows_after", res.Table.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sess.info(), nil
}

// RemoveDuplicates drops repeated rows.
func (s *Service) RemoveDuplicates(ctx context.Context, id string) (SessionInfo, error) {
	return s.apply(ctx, id, editor.ActionRemoveDuplicates, func(e *editor.Editor, t *table.Table) editor.Result {
		return e.RemoveDuplicates(t)
	})
}

// ApplyRules filters rows by rules, in order.
func (s *Service) ApplyRules(ctx context.Context, id string, rules []editor.Rule) (SessionInfo, error) {
	return s.apply(ctx, id, editor.ActionApplyRules, func(e *editor.Editor, t *table.Table) editor.Result {
		return e.ApplyRules(t, rules)
	})
}

// AddOrDeleteRows applies row additions and positional deletions, in order.
func (s *Service) AddOrDeleteRows(ctx context.Context, id string, ops []editor.RowOperation) (SessionInfo, error) {
	return s.apply(ctx, id, editor.ActionAddOrDeleteRows, func(e *editor.Editor, t *table.Table) editor.Result {
		return e.AddOrDeleteRows(t, ops)
	})
}

// RemoveEmptyRows drops rows holding a null.
func (s *Service) RemoveEmptyRows(ctx context.Context, id string) (SessionInfo, error) {
	return s.apply(ctx, id, editor.ActionRemoveEmptyRows, func(e *editor.Editor, t *table.Table) editor.Result {
		return e.RemoveEmptyRows(t)
	})
}

// SortData sorts rows by one column.
func (s *Service) SortData(ctx context.Context, id, column string, ascending bool) (SessionInfo, error) {
	return s.apply(ctx, id, editor.ActionSortData, func(e *editor.Editor, t *table.Table) editor.Result {
		return e.SortData(t, column, ascending)
	})
}

// RenameColumns renames columns per mapping.
func (s *Service) RenameColumns(ctx context.Context, id string, mapping editor.ColumnMapping) (SessionInfo, error) {
	return s.apply(ctx, id, editor.ActionRenameColumns, func(e *editor.Editor, t *table.Table) editor.Result {
		return e.RenameColumns(t, mapping)
	})
}

// FillMissingValues replaces nulls using method.
func (s *Service) FillMissingValues(ctx context.Context, id, method string, value *table.Value) (SessionInfo, error) {
	return s.apply(ctx, id, editor.ActionFillMissing, func(e *editor.Editor, t *table.Table) editor.Result {
		return e.FillMissingValues(t, method, value)
	})
}

// CreateChart builds a chart from the current table. The table is not changed.
func (s *Service) CreateChart(ctx context.Context, id string, kind chart.Kind, x, y string) (*chart.Chart, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	c, err := sess.editor.CreateChart(sess.table, kind, x, y)
	s.metrics.observeOperation(editor.ActionCreateChart, err, time.Since(start))
	if err != nil {
		logging.WithFields(ctx, "session_id", id, "action", editor.ActionCreateChart).
			Warn("chart failed", "chart_type", kind, "error", err)
		return nil, err
	}
	return c, nil
}

// Log returns the session's operation log, most recent last.
func (s *Service) Log(ctx context.Context, id string) ([]editor.LogEntry, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.editor.SaveLog(), nil
}

// ExportFileName returns the download name for format.
func ExportFileName(format table.Format) string {
	return ExportBaseName + "." + string(format)
}

// Export writes the current table to w as CSV or XLSX.
func (s *Service) Export(ctx context.Context, id string, format table.Format, w io.Writer) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	// Tables are immutable, so the snapshot can be written without the lock.
	sess.mu.Lock()
	t := sess.table
	sess.mu.Unlock()

	switch format {
	case table.FormatCSV:
		err = table.WriteCSV(w, t)
	case table.FormatXLSX:
		err = table.WriteXLSX(w, t)
	default:
		return fmt.Errorf("%w: %q", table.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}

	logging.FromContext(ctx).Info("session exported", "session_id", id, "format", format, "rows", t.Len())
	return nil
}
