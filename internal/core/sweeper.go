package core

// sweeper.go removes sessions nobody has touched for IdleTTL.
//
// The sweeper is long-running and stops when its context is cancelled, so it
// can run next to the HTTP server under one errgroup.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when StartSweeper gets a non-positive interval.
const DefaultSweepInterval = time.Minute

// StartSweeper sweeps immediately, then every interval until ctx is done.
// It always returns nil; the error result fits errgroup.Group.Go.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval.String(),
		"idle_ttl", s.cfg.IdleTTL.String(),
	)

	s.Sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes idle sessions and returns how many were removed.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.metrics.sessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, sess := range expired {
		sess.logger.Info("session expired", "idle_since", sess.idleSince().UTC())
	}
	if len(expired) > 0 {
		s.metrics.expired.Add(float64(len(expired)))
		slog.Info("idle sessions removed", "count", len(expired))
	}
	return len(expired)
}
