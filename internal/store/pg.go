package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults (20 open, 5 idle,
// 5m lifetime, 10m idle time).
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	// database/sql treats MaxIdleConns above MaxOpenConns as MaxOpenConns anyway
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// Migrate creates or updates all tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Product{},
		&schema.Retailer{},
		&schema.ShopProfile{},
		&schema.PriceObservation{},
		&schema.PriceHistoryEntry{},
		&schema.ScraperSource{},
		&schema.ScraperRun{},
		&schema.UserAgent{},
		&schema.ProxyServer{},
	)
}

// GetProductByID retrieves a product by id
func (s *pgStore) GetProductByID(ctx context.Context, id uint64) (*schema.Product, error) {
	var product schema.Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ListProductIDs returns the ids of all products
func (s *pgStore) ListProductIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&schema.Product{}).Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product ids: %w", err)
	}
	return ids, nil
}

// GetRetailerByID retrieves a retailer by id
func (s *pgStore) GetRetailerByID(ctx context.Context, id uint64) (*schema.Retailer, error) {
	var retailer schema.Retailer
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&retailer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get retailer: %w", err)
	}
	return &retailer, nil
}

// GetShopProfileByID retrieves a shop profile by id
func (s *pgStore) GetShopProfileByID(ctx context.Context, id uint64) (*schema.ShopProfile, error) {
	var profile schema.ShopProfile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shop profile: %w", err)
	}
	return &profile, nil
}

// UpsertObservation writes one (product, source) observation, appends a history
// entry when the price changed, and recomputes the owning product's stats.
// All of it runs in one transaction: the row lock on the existing observation
// serializes concurrent writers of the same pair, and the lock taken on the
// product row during the recompute serializes writers of the same product.
func (s *pgStore) UpsertObservation(ctx context.Context, input domain.ObservationInput) (*UpsertObservationResult, error) {
	var result UpsertObservationResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the prior observation for this (product, source) pair, if any
		var prior schema.PriceObservation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND source_kind = ? AND source_id = ?",
				input.ProductID, input.Source.Kind, input.Source.ID).
			First(&prior).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to lock observation: %w", err)
		}
		firstSeen := errors.Is(err, gorm.ErrRecordNotFound)

		obs := schema.PriceObservation{
			ProductID:    input.ProductID,
			SourceKind:   input.Source.Kind,
			SourceID:     input.Source.ID,
			Price:        input.Price,
			Currency:     input.Currency,
			ShippingCost: input.ShippingCost,
			FreeShipping: input.FreeShipping,
			Available:    input.Available,
			StockStatus:  input.StockStatus,
			ProductURL:   input.ProductURL,
			LastChecked:  input.ObservedAt,
		}

		result.FirstSeen = firstSeen
		if firstSeen {
			result.PriceChanged = true
			if err := tx.Create(&obs).Error; err != nil {
				return fmt.Errorf("failed to create observation: %w", err)
			}
		} else {
			obs.ID = prior.ID
			obs.CreatedAt = prior.CreatedAt
			if prior.Price.Equal(input.Price) {
				// Unchanged price keeps the prior previous_price
				obs.PreviousPrice = prior.PreviousPrice
			} else {
				result.PriceChanged = true
				previous := prior.Price
				result.PreviousPrice = &previous
				obs.PreviousPrice = decimal.NewNullDecimal(previous)
			}
			if err := tx.Save(&obs).Error; err != nil {
				return fmt.Errorf("failed to update observation: %w", err)
			}
		}
		result.ObservationID = obs.ID

		// 2. Append exactly one history entry per observed price change
		if result.PriceChanged {
			entry := schema.PriceHistoryEntry{
				ProductID:  input.ProductID,
				SourceKind: input.Source.Kind,
				SourceID:   input.Source.ID,
				Price:      input.Price,
				Currency:   input.Currency,
				Timestamp:  input.ObservedAt,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to append history entry: %w", err)
			}
		}

		// 3. Recompute the product's cached stats from available observations
		stats, mismatch, err := s.recomputeStatsTx(tx, input.ProductID)
		if err != nil {
			return err
		}
		result.Stats = stats
		result.CurrencyMismatch = mismatch

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// recomputeStatsTx recomputes a product's lowest/highest/average from its
// currently-available observations inside an open transaction. The product row
// is locked so concurrent recomputes for the same product serialize. When the
// available observations span more than one currency, the stats are left at
// their last-known-good values and mismatch=true is returned.
func (s *pgStore) recomputeStatsTx(tx *gorm.DB, productID uint64) (*domain.ProductStats, bool, error) {
	var product schema.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, domain.ErrProductNotFound
		}
		return nil, false, fmt.Errorf("failed to lock product: %w", err)
	}

	var observations []schema.PriceObservation
	if err := tx.Where("product_id = ? AND available = ?", productID, true).
		Find(&observations).Error; err != nil {
		return nil, false, fmt.Errorf("failed to list available observations: %w", err)
	}

	// Empty set means all three caches become NULL, never zero
	if len(observations) == 0 {
		empty := domain.ProductStats{}
		if err := tx.Model(&schema.Product{}).Where("id = ?", productID).
			Updates(statsColumns(empty)).Error; err != nil {
			return nil, false, fmt.Errorf("failed to clear product stats: %w", err)
		}
		return &empty, false, nil
	}

	currency := observations[0].Currency
	for _, obs := range observations[1:] {
		if obs.Currency != currency {
			return nil, true, nil
		}
	}

	lowest := observations[0].Price
	highest := observations[0].Price
	sum := decimal.Zero
	for _, obs := range observations {
		if obs.Price.LessThan(lowest) {
			lowest = obs.Price
		}
		if obs.Price.GreaterThan(highest) {
			highest = obs.Price
		}
		sum = sum.Add(obs.Price)
	}
	// Arithmetic mean of listed prices (shipping excluded), round half-up to
	// currency precision
	average := sum.Div(decimal.NewFromInt(int64(len(observations)))).Round(2)

	stats := domain.ProductStats{
		LowestPrice:  &lowest,
		HighestPrice: &highest,
		AveragePrice: &average,
	}
	if err := tx.Model(&schema.Product{}).Where("id = ?", productID).
		Updates(statsColumns(stats)).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update product stats: %w", err)
	}

	return &stats, false, nil
}

// statsColumns renders stats as update columns, mapping nil to NULL
func statsColumns(stats domain.ProductStats) map[string]interface{} {
	columns := map[string]interface{}{
		"lowest_price":  nil,
		"highest_price": nil,
		"average_price": nil,
	}
	if stats.LowestPrice != nil {
		columns["lowest_price"] = *stats.LowestPrice
	}
	if stats.HighestPrice != nil {
		columns["highest_price"] = *stats.HighestPrice
	}
	if stats.AveragePrice != nil {
		columns["average_price"] = *stats.AveragePrice
	}
	return columns
}

// GetObservation retrieves the observation for a (product, source) pair
func (s *pgStore) GetObservation(ctx context.Context, productID uint64, source domain.SourceRef) (*schema.PriceObservation, error) {
	var obs schema.PriceObservation
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND source_kind = ? AND source_id = ?", productID, source.Kind, source.ID).
		First(&obs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	return &obs, nil
}

// ListAvailableObservations returns a product's currently-available observations
func (s *pgStore) ListAvailableObservations(ctx context.Context, productID uint64) ([]schema.PriceObservation, error) {
	var observations []schema.PriceObservation
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND available = ?", productID, true).
		Order("id ASC").
		Find(&observations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available observations: %w", err)
	}
	return observations, nil
}

// RecomputeProductStats recomputes and persists a product's cached stats.
// Returns domain.ErrCurrencyMismatch when the recompute had to be skipped.
func (s *pgStore) RecomputeProductStats(ctx context.Context, productID uint64) (*domain.ProductStats, error) {
	var stats *domain.ProductStats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recomputed, mismatch, err := s.recomputeStatsTx(tx, productID)
		if err != nil {
			return err
		}
		if mismatch {
			return domain.ErrCurrencyMismatch
		}
		stats = recomputed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ListPriceHistory returns history entries for a product, newest first
func (s *pgStore) ListPriceHistory(ctx context.Context, productID uint64, since *time.Time, limit int) ([]schema.PriceHistoryEntry, error) {
	query := s.db.WithContext(ctx).Where("product_id = ?", productID)
	if since != nil {
		query = query.Where("timestamp >= ?", *since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []schema.PriceHistoryEntry
	if err := query.Order("timestamp DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}
	return entries, nil
}

// PurgePriceHistoryBefore deletes history entries older than cutoff
func (s *pgStore) PurgePriceHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&schema.PriceHistoryEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge price history: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// GetScraperSource retrieves a scraper source by id
func (s *pgStore) GetScraperSource(ctx context.Context, id uint64) (*schema.ScraperSource, error) {
	var source schema.ScraperSource
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scraper source: %w", err)
	}
	return &source, nil
}

// ListActiveScraperSources returns all sources with is_active = true
func (s *pgStore) ListActiveScraperSources(ctx context.Context) ([]schema.ScraperSource, error) {
	var sources []schema.ScraperSource
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active scraper sources: %w", err)
	}
	return sources, nil
}

// UpdateSourceLastRun records the outcome of the most recent run on a source
func (s *pgStore) UpdateSourceLastRun(ctx context.Context, id uint64, status domain.RunStatus, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&schema.ScraperSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_status": string(status),
			"last_run_time":   at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update source last run: %w", err)
	}
	return nil
}

// CreateRun inserts a freshly opened scraper run
func (s *pgStore) CreateRun(ctx context.Context, run *schema.ScraperRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetRun retrieves a scraper run by id
func (s *pgStore) GetRun(ctx context.Context, id string) (*schema.ScraperRun, error) {
	var run schema.ScraperRun
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// FinalizeRun closes a run exactly once. The guard on end_time makes the second
// caller lose: a run that is already finalized is never mutated again.
func (s *pgStore) FinalizeRun(ctx context.Context, id string, status domain.RunStatus, errLog string, endTime time.Time, scraped, newPrices, updated uint) error {
	res := s.db.WithContext(ctx).Model(&schema.ScraperRun{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]interface{}{
			"status":           string(status),
			"errors":           errLog,
			"end_time":         endTime,
			"products_scraped": scraped,
			"new_prices_found": newPrices,
			"updated_prices":   updated,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finalize run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		existing, err := s.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrRunNotFound
		}
		return domain.ErrRunFinalized
	}
	return nil
}

// FinalizeStaleRuns closes runs left open past staleBefore as failed
func (s *pgStore) FinalizeStaleRuns(ctx context.Context, staleBefore time.Time, endTime time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&schema.ScraperRun{}).
		Where("end_time IS NULL AND start_time < ?", staleBefore).
		Updates(map[string]interface{}{
			"status":   string(domain.RunStatusFailed),
			"errors":   "abandoned: run exceeded stale threshold",
			"end_time": endTime,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to finalize stale runs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListActiveUserAgents returns the active user-agent pool entries
func (s *pgStore) ListActiveUserAgents(ctx context.Context) ([]schema.UserAgent, error) {
	var agents []schema.UserAgent
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user agents: %w", err)
	}
	return agents, nil
}

// ListActiveProxies returns the active proxy pool entries
func (s *pgStore) ListActiveProxies(ctx context.Context) ([]schema.ProxyServer, error) {
	var proxies []schema.ProxyServer
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&proxies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list proxies: %w", err)
	}
	return proxies, nil
}

// MarkUserAgentActive flips a user agent's active flag
func (s *pgStore) MarkUserAgentActive(ctx context.Context, id uint64, active bool) error {
	err := s.db.WithContext(ctx).Model(&schema.UserAgent{}).
		Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		return fmt.Errorf("failed to mark user agent: %w", err)
	}
	return nil
}

// UpdateProxyLiveness records the outcome of using a proxy
func (s *pgStore) UpdateProxyLiveness(ctx context.Context, id uint64, working bool, latencyMS *float64, at time.Time) error {
	columns := map[string]interface{}{
		"is_working":   working,
		"last_checked": at,
	}
	if latencyMS != nil {
		columns["latency_ms"] = *latencyMS
	}
	err := s.db.WithContext(ctx).Model(&schema.ProxyServer{}).
		Where("id = ?", id).
		Updates(columns).Error
	if err != nil {
		return fmt.Errorf("failed to update proxy liveness: %w", err)
	}
	return nil
}
