package core

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountOperations(t *testing.T) {
	s, _ := newTestService(t, Config{})
	ctx := context.Background()
	id := openSample(t, s).ID

	if _, err := s.RemoveDuplicates(ctx, id); err != nil {
		t.Fatalf("RemoveDuplicates() error = %v", err)
	}
	_, _ = s.SortData(ctx, id, "Missing", true)
	_, _ = s.Open(ctx, "notes.txt", strings.NewReader("x"))

	m := s.Metrics()
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"remove_duplicates ok", testutil.ToFloat64(m.operations.WithLabelValues("remove_duplicates", outcomeOK)), 1},
		{"sort_data rejected", testutil.ToFloat64(m.operations.WithLabelValues("sort_data", outcomeRejected)), 1},
		{"uploads ok", testutil.ToFloat64(m.uploads.WithLabelValues(outcomeOK)), 1},
		{"uploads rejected", testutil.ToFloat64(m.uploads.WithLabelValues(outcomeRejected)), 1},
		{"sessions open", testutil.ToFloat64(m.sessions), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestMetricsRegistryGathers(t *testing.T) {
	m := NewMetrics()
	m.observeUpload(nil)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "tabledit_uploads_total" {
			found = true
		}
	}
	if !found {
		t.Error("tabledit_uploads_total not gathered")
	}
}
