package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewUploadLimiterDefaults(t *testing.T) {
	tests := []struct {
		name          string
		maxConcurrent int
		maxWait       time.Duration
		wantMax       int
		wantWait      time.Duration
	}{
		{"explicit", 3, time.Second, 3, time.Second},
		{"zero uses defaults", 0, 0, DefaultMaxConcurrentUploads, DefaultMaxWaitTime},
		{"negative uses defaults", -2, -time.Second, DefaultMaxConcurrentUploads, DefaultMaxWaitTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewUploadLimiter(tt.maxConcurrent, tt.maxWait)
			if l.MaxConcurrent() != tt.wantMax {
				t.Errorf("MaxConcurrent() = %d, want %d", l.MaxConcurrent(), tt.wantMax)
			}
			if l.maxWait != tt.wantWait {
				t.Errorf("maxWait = %v, want %v", l.maxWait, tt.wantWait)
			}
		})
	}
}

// holdUploadSlots takes every upload slot of s until the returned func runs.
func holdUploadSlots(t *testing.T, s *Service) func() {
	t.Helper()
	n := s.limiter.MaxConcurrent()
	for i := 0; i < n; i++ {
		if !s.limiter.TryAcquire() {
			t.Fatalf("TryAcquire() %d failed", i)
		}
	}
	return func() {
		for i := 0; i < n; i++ {
			s.limiter.Release()
		}
	}
}

func TestServiceOpenRejectsWhenUploadsBusy(t *testing.T) {
	s, _ := newTestService(t, Config{MaxConcurrentUploads: 1, UploadWait: 20 * time.Millisecond})
	release := holdUploadSlots(t, s)

	if got := s.Status().Uploads; got.Active != 1 || got.Available != 0 {
		t.Errorf("Status().Uploads = %+v, want 1 active, 0 available", got)
	}

	_, err := s.Open(context.Background(), "sample.csv", strings.NewReader(sampleCSV))
	if !errors.Is(err, ErrTooManyUploads) {
		t.Fatalf("Open() error = %v, want %v", err, ErrTooManyUploads)
	}
	if got := len(s.List()); got != 0 {
		t.Errorf("List() has %d sessions, want 0", got)
	}
	if got := testutil.ToFloat64(s.Metrics().uploads.WithLabelValues(outcomeRejected)); got != 1 {
		t.Errorf("rejected uploads = %v, want 1", got)
	}

	release()
	openSample(t, s)
	if got := s.Status().Uploads.Active; got != 0 {
		t.Errorf("Active after Open = %d, want 0", got)
	}
}

func TestServiceOpenWaitsForSlot(t *testing.T) {
	s, _ := newTestService(t, Config{MaxConcurrentUploads: 1, UploadWait: 5 * time.Second})
	release := holdUploadSlots(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Open(context.Background(), "sample.csv", strings.NewReader(sampleCSV))
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("Open() returned %v while the slot was held", err)
	case <-time.After(30 * time.Millisecond):
	}

	release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Open() did not proceed after the slot was released")
	}
	if got := len(s.List()); got != 1 {
		t.Errorf("List() has %d sessions, want 1", got)
	}
}

func TestServiceOpenCallerCancels(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name:    "cancelled",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			wantErr: context.Canceled,
		},
		{
			name: "deadline shorter than upload wait",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 10*time.Millisecond)
			},
			wantErr: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t, Config{MaxConcurrentUploads: 1, UploadWait: 5 * time.Second})
			release := holdUploadSlots(t, s)
			defer release()

			ctx, cancel := tt.ctx()
			defer cancel()
			if tt.wantErr == context.Canceled {
				cancel()
			}

			start := time.Now()
			_, err := s.Open(ctx, "sample.csv", strings.NewReader(sampleCSV))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrTooManyUploads) {
				t.Error("caller cancellation reported as ErrTooManyUploads")
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("Open() took %v, want the caller's deadline", elapsed)
			}
		})
	}
}

func TestServiceOpenParallelUploads(t *testing.T) {
	s, _ := newTestService(t, Config{MaxConcurrentUploads: 2, UploadWait: 5 * time.Second})

	const uploads = 6
	errs := make(chan error, uploads)
	for i := 0; i < uploads; i++ {
		go func() {
			_, err := s.Open(context.Background(), "sample.csv", strings.NewReader(sampleCSV))
			errs <- err
		}()
	}
	for i := 0; i < uploads; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Open() error = %v", err)
		}
	}

	if got := len(s.List()); got != uploads {
		t.Errorf("List() has %d sessions, want %d", got, uploads)
	}
	if got := s.Status().Uploads; got.Active != 0 || got.Available != 2 {
		t.Errorf("Status().Uploads = %+v, want all slots free", got)
	}
}
