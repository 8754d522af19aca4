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
)

// Reconciler is the sweeper's view of the reconciliation engine
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// ReconcileAllConfig holds configuration for the reconcile-all sweeper
type ReconcileAllConfig struct {
	// SweepInterval is how long to sleep between full passes
	SweepInterval time.Duration
}

// reconcileAllSweeper periodically recomputes cached stats for every product,
// repairing any drift left by skipped recomputes or out-of-band writes.
type reconcileAllSweeper struct {
	config     ReconcileAllConfig
	reconciler Reconciler
	clock      adapter.Clock
	running    atomic.Bool
	stopChan   chan struct{}
	stoppedCh  chan struct{}
}

// NewReconcileAllSweeper creates a reconcile-all sweeper
func NewReconcileAllSweeper(config ReconcileAllConfig, reconciler Reconciler, clock adapter.Clock) Sweeper {
	if config.SweepInterval == 0 {
		config.SweepInterval = 6 * time.Hour
	}

	return &reconcileAllSweeper{
		config:     config,
		reconciler: reconciler,
		clock:      clock,
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *reconcileAllSweeper) Name() string {
	return "reconcile-all-sweeper"
}

// Start begins the sweeper's main loop
func (s *reconcileAllSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting reconcile-all sweeper",
		zap.Duration("sweep_interval", s.config.SweepInterval))

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Reconcile-all sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Reconcile-all sweeper stop requested")
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
func (s *reconcileAllSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping reconcile-all sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Reconcile-all sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Reconcile-all sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle recomputes stats for every product
func (s *reconcileAllSweeper) runSweepCycle(ctx context.Context) error {
	reconciled, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile products: %w", err)
	}

	logger.InfoCtx(ctx, "Reconcile-all sweep completed",
		zap.Int("reconciled", reconciled))

	return nil
}

func (s *reconcileAllSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
