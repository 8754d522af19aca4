package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// UpsertObservationResult reports what an observation upsert did
type UpsertObservationResult struct {
	// ObservationID is the id of the upserted row
	ObservationID uint64
	// FirstSeen is true when no prior observation existed for the pair
	FirstSeen bool
	// PriceChanged is true when the price differs from the prior observation
	// (always true for the first observation); exactly one history entry was
	// appended when set
	PriceChanged bool
	// PreviousPrice is the prior price when one existed
	PreviousPrice *decimal.Decimal
	// Stats are the recomputed product stats, nil when the recompute was
	// skipped because of a currency mismatch
	Stats *domain.ProductStats
	// CurrencyMismatch is true when available observations span currencies and
	// stats were left at their last-known-good values
	CurrencyMismatch bool
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetProductByID retrieves a product by id (nil when missing)
	GetProductByID(ctx context.Context, id uint64) (*schema.Product, error)
	// ListProductIDs returns the ids of all products
	ListProductIDs(ctx context.Context) ([]uint64, error)
	// GetRetailerByID retrieves a retailer by id (nil when missing)
	GetRetailerByID(ctx context.Context, id uint64) (*schema.Retailer, error)
	// GetShopProfileByID retrieves a shop profile by id (nil when missing)
	GetShopProfileByID(ctx context.Context, id uint64) (*schema.ShopProfile, error)

	// UpsertObservation writes one (product, source) observation, appends a
	// history entry when the price changed, and recomputes the product's stats,
	// all in a single transaction
	UpsertObservation(ctx context.Context, input domain.ObservationInput) (*UpsertObservationResult, error)
	// GetObservation retrieves the observation for a (product, source) pair (nil when missing)
	GetObservation(ctx context.Context, productID uint64, source domain.SourceRef) (*schema.PriceObservation, error)
	// ListAvailableObservations returns a product's currently-available observations
	ListAvailableObservations(ctx context.Context, productID uint64) ([]schema.PriceObservation, error)
	// RecomputeProductStats recomputes and persists a product's cached stats
	// from its available observations
	RecomputeProductStats(ctx context.Context, productID uint64) (*domain.ProductStats, error)

	// ListPriceHistory returns history entries for a product, newest first,
	// optionally bounded by since
	ListPriceHistory(ctx context.Context, productID uint64, since *time.Time, limit int) ([]schema.PriceHistoryEntry, error)
	// PurgePriceHistoryBefore deletes history entries older than cutoff and
	// returns the number removed; idempotent
	PurgePriceHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// GetScraperSource retrieves a scraper source by id (nil when missing)
	GetScraperSource(ctx context.Context, id uint64) (*schema.ScraperSource, error)
	// ListActiveScraperSources returns all sources with is_active = true
	ListActiveScraperSources(ctx context.Context) ([]schema.ScraperSource, error)
	// UpdateSourceLastRun records the outcome of the most recent run on a source
	UpdateSourceLastRun(ctx context.Context, id uint64, status domain.RunStatus, at time.Time) error

	// CreateRun inserts a freshly opened scraper run
	CreateRun(ctx context.Context, run *schema.ScraperRun) error
	// GetRun retrieves a scraper run by id (nil when missing)
	GetRun(ctx context.Context, id string) (*schema.ScraperRun, error)
	// FinalizeRun closes a run exactly once; a second call returns
	// domain.ErrRunFinalized
	FinalizeRun(ctx context.Context, id string, status domain.RunStatus, errLog string, endTime time.Time, scraped, newPrices, updated uint) error
	// FinalizeStaleRuns closes runs left open past staleBefore as failed and
	// returns the number recovered
	FinalizeStaleRuns(ctx context.Context, staleBefore time.Time, endTime time.Time) (int64, error)

	// ListActiveUserAgents returns the active user-agent pool entries
	ListActiveUserAgents(ctx context.Context) ([]schema.UserAgent, error)
	// ListActiveProxies returns the active proxy pool entries
	ListActiveProxies(ctx context.Context) ([]schema.ProxyServer, error)
	// MarkUserAgentActive flips a user agent's active flag
	MarkUserAgentActive(ctx context.Context, id uint64, active bool) error
	// UpdateProxyLiveness records the outcome of using a proxy
	UpdateProxyLiveness(ctx context.Context, id uint64, working bool, latencyMS *float64, at time.Time) error
}
