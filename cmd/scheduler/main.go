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
	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/identity"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/messaging"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/providers/jetstream"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/reconcile"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/runtracker"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/scheduler"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSchedulerConfig(*configFile, *envPath)
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
			"service": "scrape-scheduler",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Scrape Scheduler")

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

	// Initialize store and adapters
	dataStore := store.NewPGStore(db)
	clock := adapter.NewClock()

	// Connect the price-change publisher when NATS is configured
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: "price-comparison-scheduler",
		}, adapter.NewNatsJetStream(), adapter.NewJSON())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer publisher.Close()
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("stream", cfg.NATS.StreamName))
	} else {
		logger.WarnCtx(ctx, "NATS not configured, price change events will not be published")
	}

	// Wire the reconciliation engine and run machinery
	gateway := catalog.NewGateway(dataStore)
	engine := reconcile.NewEngine(dataStore, gateway, publisher, clock)
	tracker := runtracker.NewTracker(dataStore, clock)
	identities := identity.NewPool(dataStore, clock, time.Now().UnixNano())

	fetchers := map[domain.ScraperType]scheduler.Fetcher{
		domain.ScraperTypeAPI: scheduler.NewAPIFetcher(),
	}

	sched := scheduler.NewScheduler(scheduler.Config{
		ScanInterval:   cfg.Scrape.ScanInterval,
		WorkerPoolSize: cfg.Scrape.Worker.WorkerPoolSize,
		QueueSize:      cfg.Scrape.Worker.WorkerQueueSize,
	}, dataStore, engine, tracker, identities, fetchers, clock)

	logger.InfoCtx(ctx, "Initialized scheduler",
		zap.Duration("scan_interval", cfg.Scrape.ScanInterval),
		zap.Int("worker_pool_size", cfg.Scrape.Worker.WorkerPoolSize),
	)

	// Start the scan loop in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := sched.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the scheduler
	cancel()

	// Give in-flight runs time to finalize
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.InfoCtx(shutdownCtx, "Scheduler stopped")
}
