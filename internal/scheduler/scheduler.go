package scheduler

import (
	"context"
	"log/slog"
	"time"

	"catalog_syncer/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncSummary, error)
}

type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:     syncer,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start runs a sync immediately and then on every interval tick until the
// context is cancelled.
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

// RunOnce performs a single sync run, for operator-triggered invocations.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	_, err := s.syncer.Sync(runCtx)
	return err
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.syncer.Sync(syncCtx); err != nil {
		s.logger.Error("sync failed", "error", err)
	}
}
