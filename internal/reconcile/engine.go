package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/adapter"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/catalog"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/messaging"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// IngestResult reports what ingesting one observation did
type IngestResult struct {
	// FirstSeen is true when this was the first observation for the pair
	FirstSeen bool
	// PriceChanged is true when the price differs from the prior observation
	PriceChanged bool
	// PreviousPrice is the prior price when one existed
	PreviousPrice *decimal.Decimal
	// Stats are the recomputed product stats, nil when the recompute was skipped
	Stats *domain.ProductStats
	// CurrencyMismatch is true when the stat recompute was skipped because
	// available observations span currencies
	CurrencyMismatch bool
}

// Engine reconciles price observations from many sources into per-product
// state: one live observation per (product, source), an append-only price
// history, and cached lowest/highest/average stats.
//
// Writes to the same product are serialized twice over: a keyed in-process
// mutex orders callers within this process, and the store's row locks order
// writers across processes.
type Engine struct {
	store     store.Store
	catalog   catalog.Gateway
	publisher messaging.Publisher
	clock     adapter.Clock

	mu           sync.Mutex
	productLocks map[uint64]*productLock
}

type productLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates a reconciliation engine. publisher may be nil when no
// broker is configured; price-change events are then skipped.
func NewEngine(s store.Store, gateway catalog.Gateway, publisher messaging.Publisher, clock adapter.Clock) *Engine {
	return &Engine{
		store:        s,
		catalog:      gateway,
		publisher:    publisher,
		clock:        clock,
		productLocks: make(map[uint64]*productLock),
	}
}

// lockProduct acquires the keyed mutex for a product and returns its unlock
func (e *Engine) lockProduct(productID uint64) func() {
	e.mu.Lock()
	entry, ok := e.productLocks[productID]
	if !ok {
		entry = &productLock{}
		e.productLocks[productID] = entry
	}
	entry.refs++
	e.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		e.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(e.productLocks, productID)
		}
		e.mu.Unlock()
	}
}

// Ingest validates and applies one observation. On success the observation is
// upserted, a history entry is appended if the price changed, the product's
// stats are recomputed, and a price-change event is published when warranted.
func (e *Engine) Ingest(ctx context.Context, input domain.ObservationInput) (*IngestResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := e.catalog.ResolveSource(ctx, input.Source); err != nil {
		return nil, err
	}

	if input.ObservedAt.IsZero() {
		input.ObservedAt = e.clock.Now().UTC()
	}

	unlock := e.lockProduct(input.ProductID)
	defer unlock()

	result, err := e.store.UpsertObservation(ctx, input)
	if err != nil {
		return nil, err
	}

	if result.CurrencyMismatch {
		logger.WarnCtx(ctx, "currency mismatch, product stats left unchanged",
			zap.Uint64("product_id", input.ProductID),
			zap.String("source", input.Source.String()),
			zap.String("currency", input.Currency))
	}

	if result.PriceChanged {
		e.publishPriceChange(ctx, input, result)
	}

	return &IngestResult{
		FirstSeen:        result.FirstSeen,
		PriceChanged:     result.PriceChanged,
		PreviousPrice:    result.PreviousPrice,
		Stats:            result.Stats,
		CurrencyMismatch: result.CurrencyMismatch,
	}, nil
}

// publishPriceChange emits a price-change event. Publish failures are logged
// and never fail the ingest; the observation is already committed.
func (e *Engine) publishPriceChange(ctx context.Context, input domain.ObservationInput, result *store.UpsertObservationResult) {
	if e.publisher == nil {
		return
	}

	slug := ""
	if product, err := e.catalog.GetProduct(ctx, input.ProductID); err == nil {
		slug = product.Slug
	}

	event := &domain.PriceChangeEvent{
		EventID:       uuid.NewString(),
		ProductID:     input.ProductID,
		ProductSlug:   slug,
		Source:        input.Source.String(),
		PreviousPrice: result.PreviousPrice,
		NewPrice:      input.Price,
		Currency:      input.Currency,
		Timestamp:     input.ObservedAt,
	}

	if err := e.publisher.PublishPriceChange(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "failed to publish price change event"),
			zap.Uint64("product_id", input.ProductID),
			zap.String("source", input.Source.String()))
	}
}

// Reconcile recomputes one product's cached stats from its available
// observations. Returns domain.ErrCurrencyMismatch when the recompute had to
// be skipped.
func (e *Engine) Reconcile(ctx context.Context, productID uint64) (*domain.ProductStats, error) {
	unlock := e.lockProduct(productID)
	defer unlock()

	return e.store.RecomputeProductStats(ctx, productID)
}

// ReconcileAll recomputes stats for every product and returns the number
// reconciled. Currency mismatches are logged and skipped, not fatal.
func (e *Engine) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := e.store.ListProductIDs(ctx)
	if err != nil {
		return 0, err
	}

	reconciled := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return reconciled, err
		}

		if _, err := e.Reconcile(ctx, id); err != nil {
			if errors.Is(err, domain.ErrCurrencyMismatch) {
				logger.WarnCtx(ctx, "currency mismatch, skipping product",
					zap.Uint64("product_id", id))
				continue
			}
			return reconciled, err
		}
		reconciled++
	}

	return reconciled, nil
}

// GetObservations returns a product's currently-available observations
func (e *Engine) GetObservations(ctx context.Context, productID uint64) ([]schema.PriceObservation, error) {
	if _, err := e.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return e.store.ListAvailableObservations(ctx, productID)
}

// GetPriceHistory returns a product's history entries, newest first
func (e *Engine) GetPriceHistory(ctx context.Context, productID uint64, since *time.Time, limit int) ([]schema.PriceHistoryEntry, error) {
	if _, err := e.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return e.store.ListPriceHistory(ctx, productID, since, limit)
}

// PurgeHistoryOlderThan removes history entries older than retention and
// returns the number removed
func (e *Engine) PurgeHistoryOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := e.clock.Now().UTC().Add(-retention)
	return e.store.PurgePriceHistoryBefore(ctx, cutoff)
}
