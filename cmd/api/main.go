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
	"github.com/Fitsum-Berhane/price-comparison-app/internal/api/server"
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
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Price Comparison API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	// The API process owns the schema
	if err := store.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
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
			ConnectionName: "price-comparison-api",
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
	if err := identities.Refresh(ctx); err != nil {
		logger.ErrorCtx(ctx, err)
	}

	fetchers := map[domain.ScraperType]scheduler.Fetcher{
		domain.ScraperTypeAPI: scheduler.NewAPIFetcher(),
	}

	// Manual triggers only; the scan loop lives in the scheduler binary
	sched := scheduler.NewScheduler(scheduler.Config{
		WorkerPoolSize: cfg.Scrape.Worker.WorkerPoolSize,
		QueueSize:      cfg.Scrape.Worker.WorkerQueueSize,
	}, dataStore, engine, tracker, identities, fetchers, clock)
	sched.StartWorkers(ctx)

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		APIKeys:      cfg.Auth.APIKeys,
	}

	// Create and start server
	srv := server.New(serverConfig, dataStore, engine, sched, tracker)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Let dispatched runs finalize before the process exits
	sched.StopWorkers()

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
