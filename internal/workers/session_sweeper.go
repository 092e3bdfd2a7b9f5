package workers

import (
	"context"
	"log/slog"
	"time"
)

type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ExpiredSessionSweeper periodically drops expired sessions. Authentication
// still evicts lazily, so the sweep only bounds memory.
type ExpiredSessionSweeper struct {
	sessions SessionSweeper
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionSweeper(sessions SessionSweeper, interval time.Duration, logger *slog.Logger) *ExpiredSessionSweeper {
	return &ExpiredSessionSweeper{sessions: sessions, interval: interval, logger: logger}
}

func (w *ExpiredSessionSweeper) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *ExpiredSessionSweeper) RunOnce(ctx context.Context) int {
	n, err := w.sessions.SweepExpired(ctx)
	if err != nil {
		w.logger.Error("session sweep failed", slog.Any("error", err))
		return 0
	}
	if n > 0 {
		w.logger.Info("expired sessions removed", slog.Int("count", n))
	}
	return n
}
