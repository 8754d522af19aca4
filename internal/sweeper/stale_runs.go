package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/adapter"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
)

// StaleRunConfig holds configuration for the stale run sweeper
type StaleRunConfig struct {
	// StaleThreshold is how long a run may stay open before it counts as
	// abandoned (default 1 hour)
	StaleThreshold time.Duration
	// SweepInterval is how long to sleep between recovery cycles
	SweepInterval time.Duration
}

// staleRunSweeper finalizes runs left open past the stale threshold as failed.
// A scheduler crash leaves its in-flight runs with no end_time; this sweeper
// is what gets them back to a terminal state.
type staleRunSweeper struct {
	config    StaleRunConfig
	store     store.Store
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewStaleRunSweeper creates a stale run sweeper
func NewStaleRunSweeper(config StaleRunConfig, st store.Store, clock adapter.Clock) Sweeper {
	if config.StaleThreshold == 0 {
		config.StaleThreshold = time.Hour
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = 10 * time.Minute
	}

	return &staleRunSweeper{
		config:    config,
		store:     st,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *staleRunSweeper) Name() string {
	return "stale-run-sweeper"
}

// Start begins the sweeper's main loop
func (s *staleRunSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting stale run sweeper",
		zap.Duration("stale_threshold", s.config.StaleThreshold),
		zap.Duration("sweep_interval", s.config.SweepInterval))

	// Recover immediately on startup, then on the interval
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Stale run sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Stale run sweeper stop requested")
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
			if !s.sleep(ctx, s.config.SweepInterval) {
				return nil
			}
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *staleRunSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping stale run sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Stale run sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Stale run sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle finalizes abandoned runs as failed
func (s *staleRunSweeper) runSweepCycle(ctx context.Context) error {
	now := s.clock.Now().UTC()
	staleBefore := now.Add(-s.config.StaleThreshold)

	recovered, err := s.store.FinalizeStaleRuns(ctx, staleBefore, now)
	if err != nil {
		return fmt.Errorf("failed to finalize stale runs: %w", err)
	}

	if recovered > 0 {
		logger.WarnCtx(ctx, "Recovered abandoned runs",
			zap.Int64("count", recovered),
			zap.Time("stale_before", staleBefore))
	}

	return nil
}

func (s *staleRunSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
