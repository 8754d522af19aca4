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

// HistoryRetentionConfig holds configuration for the history retention sweeper
type HistoryRetentionConfig struct {
	// Retention is how long history entries are kept (default 365 days)
	Retention time.Duration
	// SweepInterval is how long to sleep between purge cycles
	SweepInterval time.Duration
}

// historyRetentionSweeper purges price-history entries older than the
// retention window. The purge is idempotent; a crash between cycles just means
// the next cycle removes the same rows.
type historyRetentionSweeper struct {
	config    HistoryRetentionConfig
	store     store.Store
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewHistoryRetentionSweeper creates a history retention sweeper
func NewHistoryRetentionSweeper(config HistoryRetentionConfig, st store.Store, clock adapter.Clock) Sweeper {
	if config.Retention == 0 {
		config.Retention = 365 * 24 * time.Hour
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = 24 * time.Hour
	}

	return &historyRetentionSweeper{
		config:    config,
		store:     st,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *historyRetentionSweeper) Name() string {
	return "history-retention-sweeper"
}

// Start begins the sweeper's main loop
func (s *historyRetentionSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting history retention sweeper",
		zap.Duration("retention", s.config.Retention),
		zap.Duration("sweep_interval", s.config.SweepInterval))

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "History retention sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "History retention sweeper stop requested")
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
func (s *historyRetentionSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping history retention sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "History retention sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "History retention sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle purges one batch of expired history entries
func (s *historyRetentionSweeper) runSweepCycle(ctx context.Context) error {
	cutoff := s.clock.Now().UTC().Add(-s.config.Retention)

	removed, err := s.store.PurgePriceHistoryBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge price history: %w", err)
	}

	logger.InfoCtx(ctx, "History retention sweep completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("removed", removed))

	return nil
}

func (s *historyRetentionSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
