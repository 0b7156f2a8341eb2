package editor

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/tabledit/internal/table"
)

func TestSortData(t *testing.T) {
	in := mustTable(t, []string{"K", "Tag"},
		[]table.Value{num(3), str("a")},
		[]table.Value{null(), str("b")},
		[]table.Value{num(1), str("c")},
		[]table.Value{num(3), str("d")},
		[]table.Value{num(2), str("e")},
		[]table.Value{num(1), str("f")},
	)

	tests := []struct {
		name      string
		ascending bool
		wantTags  string
		wantLog   string
	}{
		{"ascending", true, "cfeadb", "Sorted data by K in ascending order."},
		{"descending", false, "adecfb", "Sorted data by K in descending order."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			res := e.SortData(in, "K", tt.ascending)
			if !res.OK() {
				t.Fatalf("SortData() error = %v", res.Err)
			}
			got := ""
			for _, row := range res.Table.Rows() {
				got += row[1].String()
			}
			if got != tt.wantTags {
				t.Errorf("order = %q, want %q", got, tt.wantTags)
			}
			if res.Table.Len() != in.Len() {
				t.Errorf("Len() = %d, want %d", res.Table.Len(), in.Len())
			}
			if d := lastLog(t, e).Details; d != tt.wantLog {
				t.Errorf("Details = %q, want %q", d, tt.wantLog)
			}
		})
	}
}

func TestSortDataStrings(t *testing.T) {
	in := mustTable(t, []string{"Name"},
		[]table.Value{str("pear")},
		[]table.Value{str("Apple")},
		[]table.Value{str("apple")},
	)
	res := newTestEditor().SortData(in, "Name", true)
	if !res.OK() {
		t.Fatalf("SortData() error = %v", res.Err)
	}
	want := []string{"Apple", "apple", "pear"}
	for i, w := range want {
		if got := res.Table.Row(i)[0].String(); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}

func TestSortDataOrdered(t *testing.T) {
	vals := []float64{5, -1, 3.5, 3.5, 100, 0, -20, 7}
	rows := make([][]table.Value, len(vals))
	for i, v := range vals {
		rows[i] = []table.Value{num(v), num(float64(i))}
	}
	in := mustTable(t, []string{"V", "Pos"}, rows...)

	res := newTestEditor().SortData(in, "V", true)
	if !res.OK() {
		t.Fatalf("SortData() error = %v", res.Err)
	}
	sorted := res.Table.Rows()
	for i := 1; i < len(sorted); i++ {
		prev, _ := sorted[i-1][0].Float()
		cur, _ := sorted[i][0].Float()
		if prev > cur {
			t.Errorf("rows %d and %d out of order: %v > %v", i-1, i, prev, cur)
		}
		if prev == cur {
			pp, _ := sorted[i-1][1].Float()
			cp, _ := sorted[i][1].Float()
			if pp > cp {
				t.Errorf("tie at %v not stable", cur)
			}
		}
	}
}

func TestSortDataErrors(t *testing.T) {
	mixed := mustTable(t, []string{"M"},
		[]table.Value{num(1)},
		[]table.Value{str("x")},
	)

	tests := []struct {
		name    string
		in      *table.Table
		column  string
		wantErr error
	}{
		{"missing column", mixed, "Nope", table.ErrColumnNotFound},
		{"mixed types", mixed, "M", table.ErrIncomparable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			res := e.SortData(tt.in, tt.column, true)
			if !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("error = %v, want %v", res.Err, tt.wantErr)
			}
			if res.Table != tt.in {
				t.Error("failed SortData() did not return the input table")
			}
			if e.LogLen() != 0 {
				t.Errorf("LogLen() = %d, want 0", e.LogLen())
			}
		})
	}
}

func TestRenameColumns(t *testing.T) {
	in := mustTable(t, []string{"a", "b", "c"}, []table.Value{num(1), num(2), num(3)})

	tests := []struct {
		name    string
		mapping ColumnMapping
		want    []string
		wantErr error
	}{
		{
			name:    "rename one",
			mapping: ColumnMapping{{From: "a", To: "alpha"}},
			want:    []string{"alpha", "b", "c"},
		},
		{
			name:    "unknown names ignored",
			mapping: ColumnMapping{{From: "zzz", To: "y"}, {From: "c", To: "gamma"}},
			want:    []string{"a", "b", "gamma"},
		},
		{
			name:    "swap",
			mapping: ColumnMapping{{From: "a", To: "b"}, {From: "b", To: "a"}},
			want:    []string{"b", "a", "c"},
		},
		{
			name:    "collision with untouched column",
			mapping: ColumnMapping{{From: "a", To: "b"}},
			wantErr: ErrRenameCollision,
		},
		{
			name:    "two columns to one name",
			mapping: ColumnMapping{{From: "a", To: "x"}, {From: "b", To: "x"}},
			wantErr: ErrRenameCollision,
		},
		{
			name:    "empty target",
			mapping: ColumnMapping{{From: "a", To: ""}},
			wantErr: ErrRenameCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			res := e.RenameColumns(in, tt.mapping)
			if tt.wantErr != nil {
				if !errors.Is(res.Err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", res.Err, tt.wantErr)
				}
				if res.Table != in || e.LogLen() != 0 {
					t.Error("failed RenameColumns() changed state")
				}
				return
			}
			if !res.OK() {
				t.Fatalf("RenameColumns() error = %v", res.Err)
			}
			got := res.Table.Columns()
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Columns() = %v, want %v", got, tt.want)
					break
				}
			}
			if in.Columns()[0] != "a" {
				t.Error("input columns changed")
			}
		})
	}
}

func TestRenameColumnsLog(t *testing.T) {
	e := newTestEditor()
	in := mustTable(t, []string{"old", "b"})
	e.RenameColumns(in, ColumnMapping{{From: "old", To: "new"}, {From: "b", To: "B"}})
	want := `Renamed columns: {"old":"new","b":"B"}.`
	if got := lastLog(t, e).Details; got != want {
		t.Errorf("Details = %q, want %q", got, want)
	}
}

func TestFillMissingValues(t *testing.T) {
	in := mustTable(t, []string{"A", "B"},
		[]table.Value{null(), str("x")},
		[]table.Value{num(1), null()},
		[]table.Value{null(), null()},
		[]table.Value{num(4), str("y")},
		[]table.Value{null(), null()},
	)

	tests := []struct {
		name   string
		method string
		value  *table.Value
		wantA  []string
		wantB  []string
	}{
		{"ffill", FillForward, nil, []string{"", "1", "1", "4", "4"}, []string{"x", "x", "x", "y", "y"}},
		{"bfill", FillBackward, nil, []string{"1", "1", "4", "4", ""}, []string{"x", "y", "y", "y", ""}},
		{"value", FillValue, ptr(num(0)), []string{"0", "1", "0", "4", "0"}, []string{"x", "0", "0", "y", "0"}},
		{"value without literal", FillValue, nil, []string{"", "1", "", "4", ""}, []string{"x", "", "", "y", ""}},
		{"unknown method", "mean", nil, []string{"", "1", "", "4", ""}, []string{"x", "", "", "y", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			res := e.FillMissingValues(in, tt.method, tt.value)
			if !res.OK() {
				t.Fatalf("FillMissingValues() error = %v", res.Err)
			}
			for i := range tt.wantA {
				if got := res.Table.Row(i)[0].String(); got != tt.wantA[i] {
					t.Errorf("row %d A = %q, want %q", i, got, tt.wantA[i])
				}
				if got := res.Table.Row(i)[1].String(); got != tt.wantB[i] {
					t.Errorf("row %d B = %q, want %q", i, got, tt.wantB[i])
				}
			}
			want := "Filled missing values using " + tt.method + " method."
			if got := lastLog(t, e).Details; got != want {
				t.Errorf("Details = %q, want %q", got, want)
			}
		})
	}

	if !in.Row(0)[0].IsNull() {
		t.Error("input table changed")
	}
}

func TestFillForwardLeadingNullsStayNull(t *testing.T) {
	in := mustTable(t, []string{"A"},
		[]table.Value{null()},
		[]table.Value{null()},
		[]table.Value{num(7)},
		[]table.Value{null()},
	)
	res := newTestEditor().FillMissingValues(in, FillForward, nil)
	for i, want := range []string{"", "", "7", "7"} {
		if got := res.Table.Row(i)[0].String(); got != want {
			t.Errorf("row %d = %q, want %q", i, got, want)
		}
	}
}
