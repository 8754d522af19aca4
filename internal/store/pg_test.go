package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Initialize the database schema
	if err := Migrate(testDB); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// initPGTestDB returns a store isolated in a transaction rolled back at cleanup
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

func seedProduct(t *testing.T, s Store, name string) uint64 {
	pg, ok := s.(*pgStore)
	require.True(t, ok)

	product := schema.Product{Name: name, Slug: name}
	require.NoError(t, pg.db.Create(&product).Error)
	return product.ID
}

func seedSource(t *testing.T, s Store, retailerID uint64, active bool) uint64 {
	pg, ok := s.(*pgStore)
	require.True(t, ok)

	retailer := schema.Retailer{Name: fmt.Sprintf("retailer-%d", retailerID), Slug: fmt.Sprintf("retailer-%d", retailerID)}
	require.NoError(t, pg.db.Create(&retailer).Error)

	source := schema.ScraperSource{
		RetailerID:     retailer.ID,
		Name:           retailer.Name,
		Slug:           retailer.Slug,
		Type:           domain.ScraperTypeHTML,
		RequestDelay:   1.0,
		RequestTimeout: 30.0,
		MaxRetries:     3,
		IsActive:       active,
	}
	require.NoError(t, pg.db.Create(&source).Error)
	return source.ID
}

func observation(productID uint64, source domain.SourceRef, price string, available bool) domain.ObservationInput {
	return domain.ObservationInput{
		ProductID:  productID,
		Source:     source,
		Price:      decimal.RequireFromString(price),
		Currency:   "USD",
		Available:  available,
		ObservedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestUpsertObservationFirstSeen(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "first-seen")
	source := domain.RetailerSource(1)

	result, err := s.UpsertObservation(ctx, observation(productID, source, "19.99", true))
	require.NoError(t, err)
	assert.True(t, result.FirstSeen)
	assert.True(t, result.PriceChanged)
	assert.Nil(t, result.PreviousPrice)
	assert.False(t, result.CurrencyMismatch)

	require.NotNil(t, result.Stats)
	require.NotNil(t, result.Stats.LowestPrice)
	assert.True(t, result.Stats.LowestPrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, result.Stats.HighestPrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, result.Stats.AveragePrice.Equal(decimal.RequireFromString("19.99")))

	history, err := s.ListPriceHistory(ctx, productID, nil, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, source, history[0].Source())
}

func TestUpsertObservationPriceChange(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "price-change")
	source := domain.RetailerSource(1)

	_, err := s.UpsertObservation(ctx, observation(productID, source, "10.00", true))
	require.NoError(t, err)

	result, err := s.UpsertObservation(ctx, observation(productID, source, "12.50", true))
	require.NoError(t, err)
	assert.False(t, result.FirstSeen)
	assert.True(t, result.PriceChanged)
	require.NotNil(t, result.PreviousPrice)
	assert.True(t, result.PreviousPrice.Equal(decimal.RequireFromString("10.00")))

	obs, err := s.GetObservation(ctx, productID, source)
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.True(t, obs.Price.Equal(decimal.RequireFromString("12.50")))
	require.True(t, obs.PreviousPrice.Valid)
	assert.True(t, obs.PreviousPrice.Decimal.Equal(decimal.RequireFromString("10.00")))

	history, err := s.ListPriceHistory(ctx, productID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	// Newest first
	assert.True(t, history[0].Price.Equal(decimal.RequireFromString("12.50")))
}

func TestUpsertObservationUnchangedPriceSkipsHistory(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "unchanged")
	source := domain.ShopSource(7)

	_, err := s.UpsertObservation(ctx, observation(productID, source, "5.00", true))
	require.NoError(t, err)

	result, err := s.UpsertObservation(ctx, observation(productID, source, "5.00", true))
	require.NoError(t, err)
	assert.False(t, result.FirstSeen)
	assert.False(t, result.PriceChanged)
	assert.Nil(t, result.PreviousPrice)

	history, err := s.ListPriceHistory(ctx, productID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpsertObservationSameSourceIDDifferentKind(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "kind-split")

	_, err := s.UpsertObservation(ctx, observation(productID, domain.RetailerSource(3), "10.00", true))
	require.NoError(t, err)
	_, err = s.UpsertObservation(ctx, observation(productID, domain.ShopSource(3), "20.00", true))
	require.NoError(t, err)

	// Same numeric id, different kinds: two distinct rows
	observations, err := s.ListAvailableObservations(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, observations, 2)
}

func TestStatsExcludeUnavailable(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "availability")

	_, err := s.UpsertObservation(ctx, observation(productID, domain.RetailerSource(1), "10.00", true))
	require.NoError(t, err)
	_, err = s.UpsertObservation(ctx, observation(productID, domain.RetailerSource(2), "99.00", false))
	require.NoError(t, err)

	stats, err := s.RecomputeProductStats(ctx, productID)
	require.NoError(t, err)
	require.NotNil(t, stats.HighestPrice)
	assert.True(t, stats.HighestPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestStatsNullWhenNothingAvailable(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "all-unavailable")
	source := domain.RetailerSource(1)

	_, err := s.UpsertObservation(ctx, observation(productID, source, "10.00", true))
	require.NoError(t, err)

	result, err := s.UpsertObservation(ctx, observation(productID, source, "10.00", false))
	require.NoError(t, err)
	require.NotNil(t, result.Stats)
	assert.Nil(t, result.Stats.LowestPrice)
	assert.Nil(t, result.Stats.HighestPrice)
	assert.Nil(t, result.Stats.AveragePrice)

	product, err := s.GetProductByID(ctx, productID)
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.False(t, product.LowestPrice.Valid)
	assert.False(t, product.AveragePrice.Valid)
}

func TestStatsAverageRounding(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "rounding")

	// (10.00 + 10.01 + 10.01) / 3 = 10.00666... rounds half-up to 10.01
	_, err := s.UpsertObservation(ctx, observation(productID, domain.RetailerSource(1), "10.00", true))
	require.NoError(t, err)
	_, err = s.UpsertObservation(ctx, observation(productID, domain.RetailerSource(2), "10.01", true))
	require.NoError(t, err)
	result, err := s.UpsertObservation(ctx, observation(productID, domain.RetailerSource(3), "10.01", true))
	require.NoError(t, err)

	require.NotNil(t, result.Stats.AveragePrice)
	assert.True(t, result.Stats.AveragePrice.Equal(decimal.RequireFromString("10.01")),
		"got %s", result.Stats.AveragePrice)

	// (10.00 + 10.01) / 2 = 10.005 rounds half-up to 10.01
	pg := s.(*pgStore)
	require.NoError(t, pg.db.Where("product_id = ? AND source_id = ?", productID, 3).
		Delete(&schema.PriceObservation{}).Error)
	stats, err := s.RecomputeProductStats(ctx, productID)
	require.NoError(t, err)
	assert.True(t, stats.AveragePrice.Equal(decimal.RequireFromString("10.01")),
		"got %s", stats.AveragePrice)
}

func TestCurrencyMismatchKeepsLastKnownGood(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "currencies")

	_, err := s.UpsertObservation(ctx, observation(productID, domain.RetailerSource(1), "10.00", true))
	require.NoError(t, err)

	eur := observation(productID, domain.RetailerSource(2), "8.00", true)
	eur.Currency = "EUR"
	result, err := s.UpsertObservation(ctx, eur)
	require.NoError(t, err)
	assert.True(t, result.CurrencyMismatch)
	assert.Nil(t, result.Stats)

	// Cached stats still reflect the pre-mismatch state
	product, err := s.GetProductByID(ctx, productID)
	require.NoError(t, err)
	require.True(t, product.LowestPrice.Valid)
	assert.True(t, product.LowestPrice.Decimal.Equal(decimal.RequireFromString("10.00")))

	_, err = s.RecomputeProductStats(ctx, productID)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestConcurrentUpsertsDistinctSourcesKeepStatsConsistent(t *testing.T) {
	// Runs against the shared database instead of a wrapping transaction so
	// every goroutine writes over its own connection
	s := NewPGStore(testDB)
	ctx := context.Background()

	product := schema.Product{Name: "concurrent", Slug: "concurrent"}
	require.NoError(t, testDB.Create(&product).Error)
	t.Cleanup(func() {
		testDB.Where("product_id = ?", product.ID).Delete(&schema.PriceHistoryEntry{})
		testDB.Where("product_id = ?", product.ID).Delete(&schema.PriceObservation{})
		testDB.Delete(&schema.Product{}, product.ID)
	})

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := observation(product.ID, domain.RetailerSource(uint64(i+1)), fmt.Sprintf("%d.00", 10+i), true)
			_, err := s.UpsertObservation(ctx, input)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	observations, err := s.ListAvailableObservations(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, observations, n)

	history, err := s.ListPriceHistory(ctx, product.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, history, n)

	// Prices 10.00 through 17.00: no upsert may be lost from the cached stats
	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.LowestPrice.Valid)
	assert.True(t, got.LowestPrice.Decimal.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, got.HighestPrice.Decimal.Equal(decimal.RequireFromString("17.00")))
	assert.True(t, got.AveragePrice.Decimal.Equal(decimal.RequireFromString("13.50")),
		"got %s", got.AveragePrice.Decimal)
}

func TestUpsertObservationMissingProduct(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	_, err := s.UpsertObservation(ctx, observation(99999999, domain.RetailerSource(1), "10.00", true))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestListPriceHistorySince(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "history-since")
	source := domain.RetailerSource(1)

	old := observation(productID, source, "10.00", true)
	old.ObservedAt = time.Now().UTC().Add(-48 * time.Hour)
	_, err := s.UpsertObservation(ctx, old)
	require.NoError(t, err)

	recent := observation(productID, source, "11.00", true)
	_, err = s.UpsertObservation(ctx, recent)
	require.NoError(t, err)

	since := time.Now().UTC().Add(-time.Hour)
	history, err := s.ListPriceHistory(ctx, productID, &since, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Price.Equal(decimal.RequireFromString("11.00")))
}

func TestPurgePriceHistoryBefore(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	productID := seedProduct(t, s, "purge")
	source := domain.RetailerSource(1)

	old := observation(productID, source, "10.00", true)
	old.ObservedAt = time.Now().UTC().Add(-400 * 24 * time.Hour)
	_, err := s.UpsertObservation(ctx, old)
	require.NoError(t, err)

	recent := observation(productID, source, "11.00", true)
	_, err = s.UpsertObservation(ctx, recent)
	require.NoError(t, err)

	cutoff := time.Now().UTC().Add(-365 * 24 * time.Hour)
	removed, err := s.PurgePriceHistoryBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	// Idempotent
	removed, err = s.PurgePriceHistoryBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)

	history, err := s.ListPriceHistory(ctx, productID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFinalizeRunExactlyOnce(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	sourceID := seedSource(t, s, 1, true)

	run := &schema.ScraperRun{
		ID:        "01JD0000000000000000000001",
		SourceID:  sourceID,
		StartTime: time.Now().UTC(),
		Status:    domain.RunStatusFailed,
	}
	require.NoError(t, s.CreateRun(ctx, run))

	fetched, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.False(t, fetched.Finalized())
	assert.Equal(t, domain.RunStatusFailed, fetched.Status)

	end := time.Now().UTC()
	require.NoError(t, s.FinalizeRun(ctx, run.ID, domain.RunStatusSuccess, "", end, 10, 2, 3))

	fetched, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Finalized())
	assert.Equal(t, domain.RunStatusSuccess, fetched.Status)
	assert.EqualValues(t, 10, fetched.ProductsScraped)
	assert.EqualValues(t, 2, fetched.NewPricesFound)
	assert.EqualValues(t, 3, fetched.UpdatedPrices)

	// Second finalize loses and leaves the row untouched
	err = s.FinalizeRun(ctx, run.ID, domain.RunStatusFailed, "late", end.Add(time.Minute), 0, 0, 0)
	assert.ErrorIs(t, err, domain.ErrRunFinalized)

	fetched, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSuccess, fetched.Status)

	err = s.FinalizeRun(ctx, "01JD000000000000000000MISS", domain.RunStatusFailed, "", end, 0, 0, 0)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestFinalizeStaleRuns(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	sourceID := seedSource(t, s, 1, true)

	now := time.Now().UTC()
	stale := &schema.ScraperRun{
		ID:        "01JD0000000000000000000002",
		SourceID:  sourceID,
		StartTime: now.Add(-2 * time.Hour),
		Status:    domain.RunStatusFailed,
	}
	fresh := &schema.ScraperRun{
		ID:        "01JD0000000000000000000003",
		SourceID:  sourceID,
		StartTime: now.Add(-5 * time.Minute),
		Status:    domain.RunStatusFailed,
	}
	require.NoError(t, s.CreateRun(ctx, stale))
	require.NoError(t, s.CreateRun(ctx, fresh))

	recovered, err := s.FinalizeStaleRuns(ctx, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, recovered)

	got, err := s.GetRun(ctx, stale.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized())
	assert.Equal(t, domain.RunStatusFailed, got.Status)
	assert.NotEmpty(t, got.Errors)

	got, err = s.GetRun(ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, got.Finalized())
}

func TestUpdateSourceLastRun(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	sourceID := seedSource(t, s, 1, true)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.UpdateSourceLastRun(ctx, sourceID, domain.RunStatusPartial, at))

	source, err := s.GetScraperSource(ctx, sourceID)
	require.NoError(t, err)
	require.NotNil(t, source)
	assert.Equal(t, string(domain.RunStatusPartial), source.LastRunStatus)
	require.NotNil(t, source.LastRunTime)
	assert.WithinDuration(t, at, *source.LastRunTime, time.Second)
}

func TestListActiveScraperSources(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	active := seedSource(t, s, 1, true)
	_ = seedSource(t, s, 2, false)

	sources, err := s.ListActiveScraperSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, active, sources[0].ID)
}

func TestIdentityPoolRoundTrip(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()
	pg := s.(*pgStore)

	agent := schema.UserAgent{Value: "Mozilla/5.0 (test)"}
	require.NoError(t, pg.db.Create(&agent).Error)
	proxy := schema.ProxyServer{
		Protocol: domain.ProxyProtocolHTTP,
		Host:     "10.0.0.1",
		Port:     8080,
		IsActive: true, IsWorking: true,
	}
	require.NoError(t, pg.db.Create(&proxy).Error)

	agents, err := s.ListActiveUserAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)

	require.NoError(t, s.MarkUserAgentActive(ctx, agent.ID, false))
	agents, err = s.ListActiveUserAgents(ctx)
	require.NoError(t, err)
	assert.Empty(t, agents)

	latency := 120.5
	at := time.Now().UTC()
	require.NoError(t, s.UpdateProxyLiveness(ctx, proxy.ID, false, &latency, at))

	proxies, err := s.ListActiveProxies(ctx)
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	assert.False(t, proxies[0].IsWorking)
	require.NotNil(t, proxies[0].LatencyMS)
	assert.InDelta(t, latency, *proxies[0].LatencyMS, 0.001)
}

func TestGetProductNilOnMissing(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	product, err := s.GetProductByID(ctx, 123456789)
	require.NoError(t, err)
	assert.Nil(t, product)

	run, err := s.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, run)
}
