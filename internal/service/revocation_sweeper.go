package service

import (
	"context"
	"log/slog"
	"time"
)

type ExpiredCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// RevocationSweeper drops revocation entries whose tokens have expired on
// their own.
type RevocationSweeper struct {
	store    ExpiredCleaner
	interval time.Duration
}

func NewRevocationSweeper(store ExpiredCleaner, interval time.Duration) *RevocationSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RevocationSweeper{store: store, interval: interval}
}

// Run sweeps until ctx is cancelled. Sweep failures are logged and retried
// on the next tick.
func (s *RevocationSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *RevocationSweeper) Sweep(ctx context.Context) int64 {
	removed, err := s.store.CleanExpired(ctx)
	if err != nil {
		slog.Warn("revocation sweep failed", "error", err)
		return 0
	}
	if removed > 0 {
		slog.Info("revocation sweep", "removed", removed)
	}
	return removed
}
