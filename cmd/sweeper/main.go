package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/adapter"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/catalog"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/config"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/reconcile"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store and clock
	dataStore := store.NewPGStore(db)
	clock := adapter.NewClock()

	// Initialize sweepers
	sweepers := []sweeper.Sweeper{
		sweeper.NewHistoryRetentionSweeper(sweeper.HistoryRetentionConfig{
			Retention:     cfg.HistoryRetention.Retention,
			SweepInterval: cfg.HistoryRetention.SweepInterval,
		}, dataStore, clock),
		sweeper.NewStaleRunSweeper(sweeper.StaleRunConfig{
			StaleThreshold: cfg.StaleRuns.StaleThreshold,
			SweepInterval:  cfg.StaleRuns.SweepInterval,
		}, dataStore, clock),
	}

	if cfg.ReconcileAll.Enabled {
		// Stats repair only; no broker needed, so the publisher stays nil
		engine := reconcile.NewEngine(dataStore, catalog.NewGateway(dataStore), nil, clock)
		sweepers = append(sweepers, sweeper.NewReconcileAllSweeper(sweeper.ReconcileAllConfig{
			SweepInterval: cfg.ReconcileAll.SweepInterval,
		}, engine, clock))
	}

	logger.InfoCtx(ctx, "Initialized sweepers",
		zap.Duration("history_retention", cfg.HistoryRetention.Retention),
		zap.Duration("stale_threshold", cfg.StaleRuns.StaleThreshold),
	)

	// Start each sweeper in a goroutine
	errChan := make(chan error, len(sweepers))
	for _, s := range sweepers {
		go func(s sweeper.Sweeper) {
			if err := s.Start(ctx); err != nil {
				errChan <- fmt.Errorf("%s: %w", s.Name(), err)
			}
		}(s)
	}

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweepers
	cancel()

	// Give the sweepers time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	for _, s := range sweepers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.ErrorCtx(shutdownCtx, err)
		}
	}

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
