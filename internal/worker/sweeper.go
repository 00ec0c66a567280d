// Package worker contains background maintenance loops.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/synterhq/synter-api/internal/repository"
)

// Sweeper periodically fails reports stuck in generating and expires old
// website snapshots. A report can get stuck when the process dies
// mid-generation; failing it unblocks retries since failed reports never
// satisfy a cache lookup.
type Sweeper struct {
	reportRepo   repository.ReportRepository
	snapshotRepo repository.SnapshotRepository
	interval     time.Duration
	staleAfter   time.Duration
	snapshotTTL  time.Duration
	stop         chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// Config holds sweeper configuration.
type Config struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	SnapshotTTL time.Duration
}

// New creates a new sweeper.
func New(
	reportRepo repository.ReportRepository,
	snapshotRepo repository.SnapshotRepository,
	cfg Config,
	logger *slog.Logger,
) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.SnapshotTTL == 0 {
		cfg.SnapshotTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		reportRepo:   reportRepo,
		snapshotRepo: snapshotRepo,
		interval:     cfg.Interval,
		staleAfter:   cfg.StaleAfter,
		snapshotTTL:  cfg.SnapshotTTL,
		stop:         make(chan struct{}),
		logger:       logger.With("component", "sweeper"),
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("starting", "interval", s.interval, "stale_after", s.staleAfter)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop gracefully stops the sweeper.
func (s *Sweeper) Stop() {
	s.logger.Info("stopping")
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single maintenance pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	failed, err := s.reportRepo.MarkStaleGeneratingFailed(ctx, s.staleAfter)
	if err != nil {
		s.logger.Error("failed to sweep stale reports", "error", err)
	} else if failed > 0 {
		s.logger.Warn("failed stuck reports", "count", failed)
	}

	expired, err := s.snapshotRepo.DeleteOlderThan(ctx, time.Now().UTC().Add(-s.snapshotTTL))
	if err != nil {
		s.logger.Error("failed to expire snapshots", "error", err)
	} else if expired > 0 {
		s.logger.Info("expired snapshots", "count", expired)
	}
}
