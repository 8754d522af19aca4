package reconcile_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/mocks"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/reconcile"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testEngineMocks struct {
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	catalog   *mocks.MockCatalogGateway
	publisher *mocks.MockPublisher
	clock     *mocks.MockClock
	engine    *reconcile.Engine
}

func setupTestEngine(t *testing.T) *testEngineMocks {
	ctrl := gomock.NewController(t)

	tm := &testEngineMocks{
		ctrl:      ctrl,
		store:     mocks.NewMockStore(ctrl),
		catalog:   mocks.NewMockCatalogGateway(ctrl),
		publisher: mocks.NewMockPublisher(ctrl),
		clock:     mocks.NewMockClock(ctrl),
	}
	tm.engine = reconcile.NewEngine(tm.store, tm.catalog, tm.publisher, tm.clock)

	return tm
}

func validInput() domain.ObservationInput {
	return domain.ObservationInput{
		ProductID:  42,
		Source:     domain.RetailerSource(7),
		Price:      decimal.RequireFromString("19.99"),
		Currency:   "USD",
		Available:  true,
		ObservedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestIngest_RejectsNegativePrice(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()
	input.Price = decimal.RequireFromString("-1.00")

	_, err := tm.engine.Ingest(context.Background(), input)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestIngest_RejectsBadCurrency(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()
	input.Currency = "dollars"

	_, err := tm.engine.Ingest(context.Background(), input)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestIngest_RejectsUnknownSourceKind(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()
	input.Source = domain.SourceRef{Kind: "warehouse", ID: 1}

	_, err := tm.engine.Ingest(context.Background(), input)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestIngest_UnknownSource(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()
	tm.catalog.EXPECT().ResolveSource(gomock.Any(), input.Source).Return(domain.ErrSourceNotFound)

	_, err := tm.engine.Ingest(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestIngest_FirstObservationPublishesEvent(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()
	lowest := input.Price

	tm.catalog.EXPECT().ResolveSource(gomock.Any(), input.Source).Return(nil)
	tm.store.EXPECT().UpsertObservation(gomock.Any(), input).Return(&store.UpsertObservationResult{
		ObservationID: 1,
		FirstSeen:     true,
		PriceChanged:  true,
		Stats:         &domain.ProductStats{LowestPrice: &lowest, HighestPrice: &lowest, AveragePrice: &lowest},
	}, nil)
	tm.catalog.EXPECT().GetProduct(gomock.Any(), input.ProductID).
		Return(&schema.Product{ID: input.ProductID, Slug: "acme-anvil"}, nil)
	tm.publisher.EXPECT().PublishPriceChange(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *domain.PriceChangeEvent) error {
			assert.NotEmpty(t, event.EventID)
			assert.Equal(t, input.ProductID, event.ProductID)
			assert.Equal(t, "acme-anvil", event.ProductSlug)
			assert.Equal(t, "retailer:7", event.Source)
			assert.Nil(t, event.PreviousPrice)
			assert.True(t, event.NewPrice.Equal(input.Price))
			assert.Equal(t, "USD", event.Currency)
			assert.Equal(t, input.ObservedAt, event.Timestamp)
			return nil
		})

	result, err := tm.engine.Ingest(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.FirstSeen)
	assert.True(t, result.PriceChanged)
	require.NotNil(t, result.Stats)
	assert.True(t, result.Stats.AveragePrice.Equal(input.Price))
}

func TestIngest_UnchangedPriceNoEvent(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()

	tm.catalog.EXPECT().ResolveSource(gomock.Any(), input.Source).Return(nil)
	tm.store.EXPECT().UpsertObservation(gomock.Any(), input).Return(&store.UpsertObservationResult{
		ObservationID: 1,
		FirstSeen:     false,
		PriceChanged:  false,
		Stats:         &domain.ProductStats{},
	}, nil)
	// No GetProduct, no publish

	result, err := tm.engine.Ingest(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, result.PriceChanged)
}

func TestIngest_DefaultsObservedAt(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	input := validInput()
	input.ObservedAt = time.Time{}

	tm.clock.EXPECT().Now().Return(now)
	tm.catalog.EXPECT().ResolveSource(gomock.Any(), input.Source).Return(nil)
	tm.store.EXPECT().UpsertObservation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got domain.ObservationInput) (*store.UpsertObservationResult, error) {
			assert.Equal(t, now, got.ObservedAt)
			return &store.UpsertObservationResult{Stats: &domain.ProductStats{}}, nil
		})

	_, err := tm.engine.Ingest(context.Background(), input)
	require.NoError(t, err)
}

func TestIngest_CurrencyMismatchStillCommits(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()
	previous := decimal.RequireFromString("18.00")

	tm.catalog.EXPECT().ResolveSource(gomock.Any(), input.Source).Return(nil)
	tm.store.EXPECT().UpsertObservation(gomock.Any(), input).Return(&store.UpsertObservationResult{
		ObservationID:    1,
		PriceChanged:     true,
		PreviousPrice:    &previous,
		Stats:            nil,
		CurrencyMismatch: true,
	}, nil)
	tm.catalog.EXPECT().GetProduct(gomock.Any(), input.ProductID).
		Return(&schema.Product{ID: input.ProductID, Slug: "acme-anvil"}, nil)
	tm.publisher.EXPECT().PublishPriceChange(gomock.Any(), gomock.Any()).Return(nil)

	result, err := tm.engine.Ingest(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.CurrencyMismatch)
	assert.Nil(t, result.Stats)
}

func TestIngest_PublishFailureDoesNotFailIngest(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()

	tm.catalog.EXPECT().ResolveSource(gomock.Any(), input.Source).Return(nil)
	tm.store.EXPECT().UpsertObservation(gomock.Any(), input).Return(&store.UpsertObservationResult{
		PriceChanged: true,
		FirstSeen:    true,
		Stats:        &domain.ProductStats{},
	}, nil)
	tm.catalog.EXPECT().GetProduct(gomock.Any(), input.ProductID).
		Return(&schema.Product{ID: input.ProductID, Slug: "acme-anvil"}, nil)
	tm.publisher.EXPECT().PublishPriceChange(gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable"))

	_, err := tm.engine.Ingest(context.Background(), input)
	assert.NoError(t, err)
}

func TestReconcile_CurrencyMismatch(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.store.EXPECT().RecomputeProductStats(gomock.Any(), uint64(42)).
		Return(nil, domain.ErrCurrencyMismatch)

	_, err := tm.engine.Reconcile(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestReconcileAll_SkipsMismatchedProducts(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	stats := &domain.ProductStats{}
	tm.store.EXPECT().ListProductIDs(gomock.Any()).Return([]uint64{1, 2, 3}, nil)
	tm.store.EXPECT().RecomputeProductStats(gomock.Any(), uint64(1)).Return(stats, nil)
	tm.store.EXPECT().RecomputeProductStats(gomock.Any(), uint64(2)).
		Return(nil, domain.ErrCurrencyMismatch)
	tm.store.EXPECT().RecomputeProductStats(gomock.Any(), uint64(3)).Return(stats, nil)

	reconciled, err := tm.engine.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reconciled)
}

func TestGetPriceHistory_UnknownProduct(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	tm.catalog.EXPECT().GetProduct(gomock.Any(), uint64(42)).
		Return(nil, domain.ErrProductNotFound)

	_, err := tm.engine.GetPriceHistory(context.Background(), 42, nil, 0)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestPurgeHistoryOlderThan(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	retention := 365 * 24 * time.Hour

	tm.clock.EXPECT().Now().Return(now)
	tm.store.EXPECT().PurgePriceHistoryBefore(gomock.Any(), now.Add(-retention)).
		Return(int64(12), nil)

	removed, err := tm.engine.PurgeHistoryOlderThan(context.Background(), retention)
	require.NoError(t, err)
	assert.EqualValues(t, 12, removed)
}

func TestIngest_SerializesSameProduct(t *testing.T) {
	tm := setupTestEngine(t)
	defer tm.ctrl.Finish()

	input := validInput()
	inFlight := 0

	tm.catalog.EXPECT().ResolveSource(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	tm.store.EXPECT().UpsertObservation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.ObservationInput) (*store.UpsertObservationResult, error) {
			// The keyed mutex must keep concurrent ingests for one product from
			// overlapping here
			inFlight++
			assert.Equal(t, 1, inFlight)
			time.Sleep(10 * time.Millisecond)
			inFlight--
			return &store.UpsertObservationResult{Stats: &domain.ProductStats{}}, nil
		}).Times(2)

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, err := tm.engine.Ingest(context.Background(), input)
			assert.NoError(t, err)
		}()
	}
	<-done
	<-done
}
