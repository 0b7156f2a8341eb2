package editor

import (
	"encoding/csv"
	"io"
	"time"
)

// LogEntry is one audit record of a completed transformation.
type LogEntry struct {
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteLogCSV writes entries as action,details,created_at rows with a header.
func WriteLogCSV(w io.Writer, entries []LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"action", "details", "created_at"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Action, e.Details, e.CreatedAt.Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
