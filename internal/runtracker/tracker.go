package runtracker

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/adapter"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// Tracker opens and finalizes scraper runs. A run row is written at attempt
// start with status=failed so a crash mid-run can never read as a success;
// finalization happens exactly once.
type Tracker struct {
	store store.Store
	clock adapter.Clock
}

// NewTracker creates a run tracker
func NewTracker(s store.Store, clock adapter.Clock) *Tracker {
	return &Tracker{store: s, clock: clock}
}

// ActiveRun is an in-flight scraper run accumulating counters and errors.
// Counter methods are safe for concurrent use by ingest workers.
type ActiveRun struct {
	id        string
	sourceID  uint64
	startTime time.Time

	scraped   atomic.Uint64
	newPrices atomic.Uint64
	updated   atomic.Uint64

	errMu  sync.Mutex
	errs   []string
	closed atomic.Bool

	tracker *Tracker
}

// OpenRun creates a run row for the source with a ULID id and status=failed
func (t *Tracker) OpenRun(ctx context.Context, sourceID uint64) (*ActiveRun, error) {
	now := t.clock.Now().UTC()
	run := schema.ScraperRun{
		ID:        ulid.MustNewDefault(now).String(),
		SourceID:  sourceID,
		StartTime: now,
		Status:    domain.RunStatusFailed,
	}

	if err := t.store.CreateRun(ctx, &run); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Opened scraper run",
		zap.String("run_id", run.ID),
		zap.Uint64("source_id", sourceID))

	return &ActiveRun{
		id:        run.ID,
		sourceID:  sourceID,
		startTime: now,
		tracker:   t,
	}, nil
}

// GetRun returns a run by id or domain.ErrRunNotFound
func (t *Tracker) GetRun(ctx context.Context, id string) (*schema.ScraperRun, error) {
	run, err := t.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

// ID returns the run's ULID
func (r *ActiveRun) ID() string {
	return r.id
}

// SourceID returns the source the run executes against
func (r *ActiveRun) SourceID() uint64 {
	return r.sourceID
}

// AddScraped adds to the count of items the fetch produced
func (r *ActiveRun) AddScraped(n uint64) {
	r.scraped.Add(n)
}

// MarkNewPrice counts a first observation for a (product, source) pair
func (r *ActiveRun) MarkNewPrice() {
	r.newPrices.Add(1)
}

// MarkUpdatedPrice counts an observation whose price changed
func (r *ActiveRun) MarkUpdatedPrice() {
	r.updated.Add(1)
}

// RecordError appends one error line to the run's error log
func (r *ActiveRun) RecordError(msg string) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errs = append(r.errs, msg)
}

// Finalize closes the run with the given status and records the outcome on the
// source. Only the first call wins; later calls return domain.ErrRunFinalized.
func (r *ActiveRun) Finalize(ctx context.Context, status domain.RunStatus) error {
	if !r.closed.CompareAndSwap(false, true) {
		return domain.ErrRunFinalized
	}

	r.errMu.Lock()
	errLog := strings.Join(r.errs, "\n")
	r.errMu.Unlock()

	endTime := r.tracker.clock.Now().UTC()
	err := r.tracker.store.FinalizeRun(ctx, r.id, status, errLog, endTime,
		uint(r.scraped.Load()), uint(r.newPrices.Load()), uint(r.updated.Load()))
	if err != nil {
		return err
	}

	if err := r.tracker.store.UpdateSourceLastRun(ctx, r.sourceID, status, r.startTime); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("run_id", r.id),
			zap.Uint64("source_id", r.sourceID))
	}

	logger.InfoCtx(ctx, "Finalized scraper run",
		zap.String("run_id", r.id),
		zap.Uint64("source_id", r.sourceID),
		zap.String("status", string(status)),
		zap.Uint64("products_scraped", r.scraped.Load()),
		zap.Uint64("new_prices", r.newPrices.Load()),
		zap.Uint64("updated_prices", r.updated.Load()))

	return nil
}
