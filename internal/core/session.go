package core

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/tabledit/internal/editor"
	"github.com/JonMunkholm/tabledit/internal/table"
)

// session is one uploaded file being edited. mu serializes operations so the
// table and the editor log advance together.
type session struct {
	id        string
	fileName  string
	clientIP  string
	userAgent string
	createdAt time.Time
	logger    *slog.Logger

	mu     sync.Mutex
	table  *table.Table
	editor *editor.Editor

	lastUsed atomic.Int64 // unix nanoseconds
}

func (s *session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

func (s *session) idleSince() time.Time { return time.Unix(0, s.lastUsed.Load()) }

// SessionInfo describes a session without its rows.
type SessionInfo struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Columns    []string  `json:"columns"`
	Rows       int       `json:"rows"`
	LogEntries int       `json:"log_entries"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// info must be called with s.mu held.
func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:         s.id,
		FileName:   s.fileName,
		ClientIP:   s.clientIP,
		Columns:    s.table.Columns(),
		Rows:       s.table.Len(),
		LogEntries: s.editor.LogLen(),
		CreatedAt:  s.createdAt,
		LastUsedAt: s.idleSince().UTC(),
	}
}

// View is a page of a session's current table.
type View struct {
	Session SessionInfo  `json:"session"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	Table   *table.Table `json:"table"`
}
