package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/adapter"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/identity"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/reconcile"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/runtracker"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// Ingestor is the scheduler's view of the reconciliation engine
//
//go:generate mockgen -source=scheduler.go -destination=../mocks/ingestor.go -package=mocks -mock_names=Ingestor=MockIngestor
type Ingestor interface {
	Ingest(ctx context.Context, input domain.ObservationInput) (*reconcile.IngestResult, error)
}

// Config holds scheduler configuration
type Config struct {
	// ScanInterval is how often the scheduler looks for due sources
	ScanInterval time.Duration
	// WorkerPoolSize bounds concurrent per-source attempts
	WorkerPoolSize int
	// QueueSize bounds pending attempts waiting for a worker
	QueueSize int
}

// Scheduler decides which sources are due, dispatches fetch attempts through a
// worker pool, and drives each attempt through the run state machine:
// Idle -> Running -> {Success, Partial, Failed} -> Idle. Attempts for the same
// source are mutually exclusive; a second trigger is a no-op error.
type Scheduler struct {
	config     Config
	store      store.Store
	ingestor   Ingestor
	tracker    *runtracker.Tracker
	identities *identity.Pool
	fetchers   map[domain.ScraperType]Fetcher
	clock      adapter.Clock

	pool pond.Pool

	limiterMu sync.Mutex
	limiters  map[uint64]*rate.Limiter

	sourceMu sync.Mutex
	inFlight map[uint64]struct{}

	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewScheduler creates a scheduler. fetchers maps source types to their
// fetch implementations; sources of an unmapped type fail their runs.
func NewScheduler(
	config Config,
	st store.Store,
	ingestor Ingestor,
	tracker *runtracker.Tracker,
	identities *identity.Pool,
	fetchers map[domain.ScraperType]Fetcher,
	clock adapter.Clock,
) *Scheduler {
	return &Scheduler{
		config:     config,
		store:      st,
		ingestor:   ingestor,
		tracker:    tracker,
		identities: identities,
		fetchers:   fetchers,
		clock:      clock,
		limiters:   make(map[uint64]*rate.Limiter),
		inFlight:   make(map[uint64]struct{}),
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Start begins the scan loop. Blocking; runs until the context is canceled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting scrape scheduler",
		zap.Duration("scan_interval", s.config.ScanInterval),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize))

	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.QueueSize),
		pond.WithContext(ctx),
	)

	if err := s.identities.Refresh(ctx); err != nil {
		logger.ErrorCtx(ctx, err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Scheduler stopping due to context cancellation", zap.Error(ctx.Err()))
			s.cleanup()
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Scheduler stop requested")
			s.cleanup()
			return nil
		default:
			s.scanCycle(ctx)
			if !s.sleep(ctx, s.config.ScanInterval) {
				s.cleanup()
				return nil
			}
		}
	}
}

// StartWorkers initializes the dispatch pool without the scan loop, for
// processes that only serve manual triggers
func (s *Scheduler) StartWorkers(ctx context.Context) {
	if s.pool == nil {
		s.pool = pond.NewPool(
			s.config.WorkerPoolSize,
			pond.WithQueueSize(s.config.QueueSize),
			pond.WithContext(ctx),
		)
	}
}

// StopWorkers waits for dispatched runs to finish
func (s *Scheduler) StopWorkers() {
	s.cleanup()
}

// Stop gracefully stops the scheduler, waiting for in-flight attempts
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping scrape scheduler")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Scheduler stop interrupted by context timeout")
		return ctx.Err()
	}
}

func (s *Scheduler) cleanup() {
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

func (s *Scheduler) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}

// scanCycle triggers a run for every source that is due
func (s *Scheduler) scanCycle(ctx context.Context) {
	if err := s.identities.Refresh(ctx); err != nil {
		logger.ErrorCtx(ctx, err)
	}

	sources, err := s.store.ListActiveScraperSources(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return
	}

	now := s.clock.Now().UTC()
	for i := range sources {
		source := sources[i]
		if !s.eligible(&source, now) {
			continue
		}

		if _, err := s.TriggerRun(ctx, source.ID); err != nil {
			if errors.Is(err, domain.ErrAlreadyRunning) {
				continue
			}
			if errors.Is(err, domain.ErrSchedulerBusy) {
				// The source stays eligible and gets picked up next cycle
				logger.WarnCtx(ctx, "worker queue full, deferring source",
					zap.Uint64("source_id", source.ID))
				continue
			}
			logger.ErrorCtx(ctx, err, zap.Uint64("source_id", source.ID))
		}
	}
}

// eligible reports whether a source is due: active and past its cool-down
func (s *Scheduler) eligible(source *schema.ScraperSource, now time.Time) bool {
	if !source.IsActive {
		return false
	}
	if source.LastRunTime == nil {
		return true
	}
	return now.Sub(*source.LastRunTime) >= source.Delay()
}

// TriggerRun opens a run for the source and dispatches the attempt to the
// worker pool, returning the run id immediately; completion is observed
// through the run's status. A source already Running returns
// domain.ErrAlreadyRunning; an inactive source domain.ErrSourceInactive; a
// full worker queue domain.ErrSchedulerBusy.
func (s *Scheduler) TriggerRun(ctx context.Context, sourceID uint64) (string, error) {
	source, err := s.store.GetScraperSource(ctx, sourceID)
	if err != nil {
		return "", err
	}
	if source == nil {
		return "", domain.ErrSourceNotFound
	}
	if !source.IsActive {
		return "", domain.ErrSourceInactive
	}

	if !s.acquireSource(sourceID) {
		return "", domain.ErrAlreadyRunning
	}

	run, err := s.tracker.OpenRun(ctx, sourceID)
	if err != nil {
		s.releaseSource(sourceID)
		return "", err
	}

	if s.pool != nil {
		if _, dispatched := s.pool.TrySubmit(func() {
			defer s.releaseSource(sourceID)
			s.executeRun(ctx, source, run)
		}); dispatched {
			return run.ID(), nil
		}
	}

	// No pool or queue full; the attempt never ran, so close the run out
	// rather than block the caller on an inline execution
	run.RecordError("worker queue full, run was never dispatched")
	s.finalize(ctx, run, domain.RunStatusFailed)
	s.releaseSource(sourceID)
	return "", domain.ErrSchedulerBusy
}

func (s *Scheduler) acquireSource(sourceID uint64) bool {
	s.sourceMu.Lock()
	defer s.sourceMu.Unlock()
	if _, taken := s.inFlight[sourceID]; taken {
		return false
	}
	s.inFlight[sourceID] = struct{}{}
	return true
}

func (s *Scheduler) releaseSource(sourceID uint64) {
	s.sourceMu.Lock()
	defer s.sourceMu.Unlock()
	delete(s.inFlight, sourceID)
}

// limiter returns the per-source rate limiter derived from request_delay
func (s *Scheduler) limiter(source *schema.ScraperSource) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	limiter, ok := s.limiters[source.ID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(source.Delay()), 1)
		s.limiters[source.ID] = limiter
	}
	return limiter
}

// executeRun drives one attempt: fetch with retries, ingest every item, and
// finalize the run exactly once. Partial results stay committed.
func (s *Scheduler) executeRun(ctx context.Context, source *schema.ScraperSource, run *runtracker.ActiveRun) {
	items, err := s.fetchWithRetry(ctx, source, run)
	if err != nil {
		run.RecordError(err.Error())
		s.finalize(ctx, run, domain.RunStatusFailed)
		return
	}

	run.AddScraped(uint64(len(items)))

	ingested := 0
	failed := 0
	for i := range items {
		if ctx.Err() != nil {
			run.RecordError(fmt.Sprintf("canceled after %d of %d items", ingested, len(items)))
			break
		}
		if s.ingestItem(ctx, source, run, &items[i]) {
			ingested++
		} else {
			failed++
		}
	}

	s.finalize(ctx, run, runOutcome(len(items), ingested, failed, ctx.Err() != nil))
}

// runOutcome applies the status rule: everything ingested means success,
// anything ingested alongside failures means partial, nothing usable means
// failed. An empty fetch with no errors is a success.
func runOutcome(total, ingested, failed int, canceled bool) domain.RunStatus {
	switch {
	case ingested == total && failed == 0 && !canceled:
		return domain.RunStatusSuccess
	case ingested > 0:
		return domain.RunStatusPartial
	default:
		return domain.RunStatusFailed
	}
}

func (s *Scheduler) finalize(ctx context.Context, run *runtracker.ActiveRun, status domain.RunStatus) {
	// Finalization must survive the scheduler's own cancellation
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
	}

	if err := run.Finalize(ctx, status); err != nil {
		if errors.Is(err, domain.ErrRunFinalized) {
			logger.ErrorCtx(ctx, fmt.Errorf("CRITICAL: attempted to finalize run twice: %w", err),
				zap.String("run_id", run.ID()))
			return
		}
		logger.ErrorCtx(ctx, err, zap.String("run_id", run.ID()))
	}
}

// fetchWithRetry executes the fetch with per-attempt timeout and identity,
// retrying up to max_retries with exponential backoff based on request_delay
func (s *Scheduler) fetchWithRetry(ctx context.Context, source *schema.ScraperSource, run *runtracker.ActiveRun) ([]FetchedItem, error) {
	fetcher, ok := s.fetchers[source.Type]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for source type %q", source.Type)
	}

	limiter := s.limiter(source)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = source.Delay()
	b.MaxInterval = 10 * source.Delay()
	b.MaxElapsedTime = 0
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	var items []FetchedItem
	attempts := 0

	operation := func() error {
		attempts++

		if err := limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		opts := s.pickIdentity(ctx, source)

		attemptCtx, cancel := context.WithTimeout(ctx, source.Timeout())
		defer cancel()

		started := s.clock.Now()
		fetched, err := fetcher.Fetch(attemptCtx, source, opts)
		elapsed := s.clock.Since(started)

		if err != nil {
			run.RecordError(fmt.Sprintf("attempt %d: %v", attempts, err))
			if opts.Proxy != nil {
				s.identities.ReportProxyFailure(ctx, opts.Proxy.ID)
			}
			if opts.UserAgentID != 0 {
				s.identities.ReportUserAgentFailure(ctx, opts.UserAgentID)
			}
			// attempts = 1 initial + max_retries retries
			if attempts > int(source.MaxRetries) {
				return backoff.Permanent(fmt.Errorf("fetch failed after %d attempts: %w", attempts, err))
			}
			return err
		}

		if opts.Proxy != nil {
			latencyMS := float64(elapsed) / float64(time.Millisecond)
			s.identities.ReportProxySuccess(ctx, opts.Proxy.ID, &latencyMS)
		}
		if opts.UserAgentID != 0 {
			s.identities.ReportUserAgentSuccess(opts.UserAgentID)
		}

		items = fetched
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	return items, nil
}

// pickIdentity draws the attempt's user agent and proxy from the pool per the
// source's rotation flags
func (s *Scheduler) pickIdentity(ctx context.Context, source *schema.ScraperSource) FetchOptions {
	opts := FetchOptions{}

	if source.RotateUserAgents {
		if agent, ok := s.identities.PickUserAgent(); ok {
			opts.UserAgent = agent.Value
			opts.UserAgentID = agent.ID
		} else {
			logger.WarnCtx(ctx, "user agent rotation enabled but pool is empty",
				zap.Uint64("source_id", source.ID))
		}
	}

	if source.UseProxy {
		if proxy, ok := s.identities.PickProxy(); ok {
			opts.Proxy = &proxy
		} else {
			logger.WarnCtx(ctx, "proxy rotation enabled but pool is empty",
				zap.Uint64("source_id", source.ID))
		}
	}

	return opts
}

// ingestItem pushes one fetched item through the reconciliation engine,
// reporting whether it was committed
func (s *Scheduler) ingestItem(ctx context.Context, source *schema.ScraperSource, run *runtracker.ActiveRun, item *FetchedItem) bool {
	input := domain.ObservationInput{
		ProductID:    item.ProductID,
		Source:       domain.RetailerSource(source.RetailerID),
		Price:        item.Price,
		Currency:     item.Currency,
		ShippingCost: item.ShippingCost,
		FreeShipping: item.FreeShipping,
		Available:    item.Available,
		StockStatus:  item.StockStatus,
		ProductURL:   item.ProductURL,
		ObservedAt:   s.clock.Now().UTC(),
	}

	result, err := s.ingestor.Ingest(ctx, input)
	if err != nil {
		run.RecordError(fmt.Sprintf("product %d: %v", item.ProductID, err))
		logger.WarnCtx(ctx, "failed to ingest fetched item",
			zap.Uint64("product_id", item.ProductID),
			zap.Uint64("source_id", source.ID),
			zap.Error(err))
		return false
	}

	if result.FirstSeen {
		run.MarkNewPrice()
	} else if result.PriceChanged {
		run.MarkUpdatedPrice()
	}

	return true
}
