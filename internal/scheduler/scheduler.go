package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"omnivore_sync/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
	Consolidate(ctx context.Context) error
}

type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	logger   *slog.Logger
	running  atomic.Bool
}

func NewScheduler(syncer Syncer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	// a pass that outlives its interval must not overlap the next one
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous sync still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	syncCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := s.syncer.Sync(syncCtx); err != nil {
		s.logger.Error("sync failed", "error", err)
		return
	}

	if err := s.syncer.Consolidate(syncCtx); err != nil {
		s.logger.Error("consolidate failed", "error", err)
	}
}
