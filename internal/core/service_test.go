package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/tabledit/internal/chart"
	"github.com/JonMunkholm/tabledit/internal/editor"
	"github.com/JonMunkholm/tabledit/internal/table"
)

const sampleCSV = "Name,Qty,Price\napple,3,1.5\npear,,2\napple,3,1.5\nplum,7,\n"

// fakeClock is a settable time source shared by service and editor.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T, cfg Config) (*Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return NewService(cfg, WithClock(clock.Now)), clock
}

func openSample(t *testing.T, s *Service) SessionInfo {
	t.Helper()
	info, err := s.Open(context.Background(), "sample.csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return info
}

func TestServiceOpen(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")

	info, err := s.Open(ctx, "sample.csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if info.ID == "" {
		t.Error("ID is empty")
	}
	if info.Rows != 4 {
		t.Errorf("Rows = %d, want 4", info.Rows)
	}
	if strings.Join(info.Columns, ",") != "Name,Qty,Price" {
		t.Errorf("Columns = %v", info.Columns)
	}
	if info.ClientIP != "10.0.0.7" {
		t.Errorf("ClientIP = %q, want 10.0.0.7", info.ClientIP)
	}
	if info.LogEntries != 0 {
		t.Errorf("LogEntries = %d, want 0", info.LogEntries)
	}
	if got := s.Status().Sessions; got != 1 {
		t.Errorf("Status().Sessions = %d, want 1", got)
	}
}

func TestServiceOpenErrors(t *testing.T) {
	tests := []struct {
		name      string
		fileName  string
		body      string
		wantErr   error
		wantParse bool
	}{
		{"unsupported extension", "data.txt", sampleCSV, table.ErrUnsupportedFormat, true},
		{"empty file", "data.csv", "", table.ErrEmptyFile, true},
		{"broken excel", "data.xlsx", "not a zip", nil, true},
		{"too large", "data.csv", strings.Repeat("a,b\n", 20), ErrFileTooLarge, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t, Config{MaxFileSize: 64})
			_, err := s.Open(context.Background(), tt.fileName, strings.NewReader(tt.body))
			if err == nil {
				t.Fatal("Open() succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
			if got := editor.IsParseError(err); got != tt.wantParse {
				t.Errorf("IsParseError() = %v, want %v", got, tt.wantParse)
			}
			if got := s.Status().Sessions; got != 0 {
				t.Errorf("Sessions = %d, want 0", got)
			}
		})
	}
}

func TestServiceOpenNilReader(t *testing.T) {
	s, _ := newTestService(t, Config{})
	if _, err := s.Open(context.Background(), "a.csv", nil); !errors.Is(err, ErrNoFile) {
		t.Errorf("Open() error = %v, want %v", err, ErrNoFile)
	}
}

func TestServiceMaxSessions(t *testing.T) {
	s, _ := newTestService(t, Config{MaxSessions: 2})
	openSample(t, s)
	openSample(t, s)

	_, err := s.Open(context.Background(), "sample.csv", strings.NewReader(sampleCSV))
	if !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("Open() error = %v, want %v", err, ErrTooManySessions)
	}
}

func TestServiceOperationsUpdateTable(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	info, err := s.RemoveDuplicates(ctx, id)
	if err != nil {
		t.Fatalf("RemoveDuplicates() error = %v", err)
	}
	if info.Rows != 3 || info.LogEntries != 1 {
		t.Errorf("after RemoveDuplicates: Rows = %d LogEntries = %d, want 3 and 1", info.Rows, info.LogEntries)
	}

	info, err = s.FillMissingValues(ctx, id, editor.FillValue, ptrValue(table.Number(0)))
	if err != nil {
		t.Fatalf("FillMissingValues() error = %v", err)
	}

	rules, err := editor.ParseRules([]byte(`[{"column":"Qty","condition":"greater_than","value":2}]`))
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	if info, err = s.ApplyRules(ctx, id, rules); err != nil {
		t.Fatalf("ApplyRules() error = %v", err)
	}
	if info.Rows != 2 {
		t.Errorf("after ApplyRules: Rows = %d, want 2", info.Rows)
	}

	if _, err = s.SortData(ctx, id, "Qty", false); err != nil {
		t.Fatalf("SortData() error = %v", err)
	}
	view, err := s.View(ctx, id, 0, 0)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if got := view.Table.Row(0)[0].String(); got != "plum" {
		t.Errorf("first row after descending sort = %q, want plum", got)
	}
	if view.Limit != DefaultPageSize {
		t.Errorf("Limit = %d, want %d", view.Limit, DefaultPageSize)
	}

	entries, err := s.Log(ctx, id)
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	wantActions := []string{editor.ActionRemoveDuplicates, editor.ActionFillMissing, editor.ActionApplyRules, editor.ActionSortData}
	if len(entries) != len(wantActions) {
		t.Fatalf("len(Log) = %d, want %d", len(entries), len(wantActions))
	}
	for i, want := range wantActions {
		if entries[i].Action != want {
			t.Errorf("Log[%d].Action = %q, want %q", i, entries[i].Action, want)
		}
	}
}

func TestServiceFailedOperationKeepsTable(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	before, err := s.View(ctx, id, 0, 100)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}

	_, err = s.SortData(ctx, id, "Missing", true)
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("SortData() error = %v, want %v", err, table.ErrColumnNotFound)
	}
	if !editor.IsOperationError(err) {
		t.Errorf("error %v is not an OperationError", err)
	}

	after, err := s.View(ctx, id, 0, 100)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if !after.Table.Equal(before.Table) {
		t.Error("table changed after failed operation")
	}
	if after.Session.LogEntries != 0 {
		t.Errorf("LogEntries = %d, want 0", after.Session.LogEntries)
	}
}

func TestServiceRowsAndRename(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	ops, err := editor.ParseRowOperations([]byte(`[{"action":"add","row_data":{"Name":"kiwi","Origin":"NZ"}},{"action":"delete","index":0}]`))
	if err != nil {
		t.Fatalf("ParseRowOperations() error = %v", err)
	}
	info, err := s.AddOrDeleteRows(ctx, id, ops)
	if err != nil {
		t.Fatalf("AddOrDeleteRows() error = %v", err)
	}
	if info.Rows != 4 || strings.Join(info.Columns, ",") != "Name,Qty,Price,Origin" {
		t.Errorf("after rows: Rows = %d Columns = %v", info.Rows, info.Columns)
	}

	mapping, err := editor.ParseColumnMapping([]byte(`{"Name":"Fruit"}`))
	if err != nil {
		t.Fatalf("ParseColumnMapping() error = %v", err)
	}
	if info, err = s.RenameColumns(ctx, id, mapping); err != nil {
		t.Fatalf("RenameColumns() error = %v", err)
	}
	if info.Columns[0] != "Fruit" {
		t.Errorf("Columns[0] = %q, want Fruit", info.Columns[0])
	}

	if info, err = s.RemoveEmptyRows(ctx, id); err != nil {
		t.Fatalf("RemoveEmptyRows() error = %v", err)
	}
	if info.Rows != 0 {
		t.Errorf("after RemoveEmptyRows: Rows = %d, want 0", info.Rows)
	}
}

func TestServiceCreateChart(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	c, err := s.CreateChart(ctx, id, chart.Bar, "Name", "")
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if c.Title != "Bar Chart: Name vs Count" {
		t.Errorf("Title = %q", c.Title)
	}

	if _, err := s.CreateChart(ctx, id, chart.Line, "Name", ""); !errors.Is(err, editor.ErrInvalidChart) {
		t.Errorf("CreateChart(line, no y) error = %v, want %v", err, editor.ErrInvalidChart)
	}

	entries, _ := s.Log(ctx, id)
	if len(entries) != 2 {
		t.Errorf("len(Log) = %d, want 2", len(entries))
	}
}

func TestServiceExport(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	var buf bytes.Buffer
	if err := s.Export(ctx, id, table.FormatCSV, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := "Name,Qty,Price\napple,3,1.5\npear,,2\napple,3,1.5\nplum,7,\n"
	if buf.String() != want {
		t.Errorf("Export() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := s.Export(ctx, id, table.FormatXLSX, &buf); err != nil {
		t.Fatalf("Export(xlsx) error = %v", err)
	}
	back, err := table.ReadExcel(&buf)
	if err != nil {
		t.Fatalf("ReadExcel() error = %v", err)
	}
	if back.Len() != 4 {
		t.Errorf("xlsx rows = %d, want 4", back.Len())
	}

	if err := s.Export(ctx, id, table.Format("pdf"), &buf); !errors.Is(err, table.ErrUnsupportedFormat) {
		t.Errorf("Export(pdf) error = %v, want %v", err, table.ErrUnsupportedFormat)
	}
}

func TestExportFileName(t *testing.T) {
	if got := ExportFileName(table.FormatCSV); got != "modified_file.csv" {
		t.Errorf("ExportFileName(csv) = %q", got)
	}
	if got := ExportFileName(table.FormatXLSX); got != "modified_file.xlsx" {
		t.Errorf("ExportFileName(xlsx) = %q", got)
	}
}

func TestServiceClose(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	if err := s.Close(ctx, id); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Close() error = %v, want %v", err, ErrSessionNotFound)
	}
	if _, err := s.RemoveDuplicates(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("RemoveDuplicates() after close error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestServiceList(t *testing.T) {
	s, clock := newTestService(t, Config{})
	first := openSample(t, s)
	clock.Advance(time.Second)
	second := openSample(t, s)

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("List order = %s, %s", list[0].ID, list[1].ID)
	}
}

func TestServiceConcurrentOperations(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.RemoveDuplicates(ctx, id); err != nil {
				t.Errorf("RemoveDuplicates() error = %v", err)
			}
		}()
	}
	wg.Wait()

	info, err := s.Info(ctx, id)
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Rows != 3 || info.LogEntries != 20 {
		t.Errorf("Rows = %d LogEntries = %d, want 3 and 20", info.Rows, info.LogEntries)
	}
}

func ptrValue(v table.Value) *table.Value { return &v }

func TestServiceRemoveEmptyRowsCountsBlankRecords(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()

	info, err := s.Open(ctx, "gaps.csv", strings.NewReader("A,B,C\n1,2,3\n,,\n4,5,6\n,,\n"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if info.Rows != 4 {
		t.Fatalf("Rows = %d, want 4", info.Rows)
	}

	if info, err = s.RemoveEmptyRows(ctx, info.ID); err != nil {
		t.Fatalf("RemoveEmptyRows() error = %v", err)
	}
	if info.Rows != 2 {
		t.Errorf("Rows = %d, want 2", info.Rows)
	}
	entries, _ := s.Log(ctx, info.ID)
	if len(entries) != 1 || entries[0].Details != "Removed 2 empty rows." {
		t.Errorf("Log = %+v, want one entry \"Removed 2 empty rows.\"", entries)
	}
}
