package sweeper_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/mocks"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/sweeper"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestHistoryRetentionSweeper_PurgesOnCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	retention := 365 * 24 * time.Hour
	purged := make(chan struct{})
	never := make(chan time.Time)

	mockClock.EXPECT().Now().Return(now).AnyTimes()
	mockClock.EXPECT().After(gomock.Any()).Return((<-chan time.Time)(never)).AnyTimes()
	mockStore.EXPECT().PurgePriceHistoryBefore(gomock.Any(), now.Add(-retention)).
		DoAndReturn(func(_ context.Context, _ time.Time) (int64, error) {
			close(purged)
			return 3, nil
		})

	s := sweeper.NewHistoryRetentionSweeper(sweeper.HistoryRetentionConfig{
		Retention:     retention,
		SweepInterval: time.Hour,
	}, mockStore, mockClock)
	assert.Equal(t, "history-retention-sweeper", s.Name())

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case <-purged:
	case <-time.After(2 * time.Second):
		t.Fatal("purge was never invoked")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-done)
}

func TestStaleRunSweeper_RecoversOnStartup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	threshold := time.Hour
	recovered := make(chan struct{})
	never := make(chan time.Time)

	mockClock.EXPECT().Now().Return(now).AnyTimes()
	mockClock.EXPECT().After(gomock.Any()).Return((<-chan time.Time)(never)).AnyTimes()
	mockStore.EXPECT().FinalizeStaleRuns(gomock.Any(), now.Add(-threshold), now).
		DoAndReturn(func(_ context.Context, _, _ time.Time) (int64, error) {
			close(recovered)
			return 2, nil
		})

	s := sweeper.NewStaleRunSweeper(sweeper.StaleRunConfig{
		StaleThreshold: threshold,
		SweepInterval:  time.Hour,
	}, mockStore, mockClock)
	assert.Equal(t, "stale-run-sweeper", s.Name())

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case <-recovered:
	case <-time.After(2 * time.Second):
		t.Fatal("stale run recovery was never invoked")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-done)
}

type reconcilerFunc func(ctx context.Context) (int, error)

func (f reconcilerFunc) ReconcileAll(ctx context.Context) (int, error) { return f(ctx) }

func TestReconcileAllSweeper_ReconcilesOnCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClock := mocks.NewMockClock(ctrl)

	reconciled := make(chan struct{})
	never := make(chan time.Time)

	mockClock.EXPECT().After(gomock.Any()).Return((<-chan time.Time)(never)).AnyTimes()

	s := sweeper.NewReconcileAllSweeper(sweeper.ReconcileAllConfig{
		SweepInterval: time.Hour,
	}, reconcilerFunc(func(_ context.Context) (int, error) {
		close(reconciled)
		return 5, nil
	}), mockClock)
	assert.Equal(t, "reconcile-all-sweeper", s.Name())

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case <-reconciled:
	case <-time.After(2 * time.Second):
		t.Fatal("reconcile pass was never invoked")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-done)
}

func TestSweeper_DoubleStartRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	never := make(chan time.Time)
	started := make(chan struct{})
	mockClock.EXPECT().Now().Return(time.Now()).AnyTimes()
	mockClock.EXPECT().After(gomock.Any()).Return((<-chan time.Time)(never)).AnyTimes()
	mockStore.EXPECT().PurgePriceHistoryBefore(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ time.Time) (int64, error) {
			close(started)
			return 0, nil
		}).AnyTimes()

	s := sweeper.NewHistoryRetentionSweeper(sweeper.HistoryRetentionConfig{}, mockStore, mockClock)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	<-started

	assert.Error(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-done)
}
