package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/soltixdb/xmrchart/internal/cache"
	"github.com/soltixdb/xmrchart/internal/config"
	"github.com/soltixdb/xmrchart/internal/ingest"
	"github.com/soltixdb/xmrchart/internal/logging"
	"github.com/soltixdb/xmrchart/internal/metrics"
	"github.com/soltixdb/xmrchart/internal/notify"
	"github.com/soltixdb/xmrchart/internal/router"
	"github.com/soltixdb/xmrchart/internal/services"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *configPath != "" {
		cfg.ResolveSourcePaths(filepath.Dir(*configPath))
	}

	// Setup logger
	logger, logCloser, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logCloser.Close() }()
	logging.SetGlobal(logger)
	logger.Info("Chart service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Sources
	catalog, err := ingest.NewCatalogFromConfig(cfg.Sources)
	if err != nil {
		logger.Fatal("Invalid source configuration", "error", err)
	}
	logger.Info("Sources loaded", "count", len(cfg.Sources))

	recorder := metrics.New()
	opts := []services.ChartOption{
		services.WithEngineDefaults(cfg.Engine),
		services.WithMetrics(recorder),
	}

	// Analysis cache (configurable backend)
	analysisCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to initialize cache", "type", cfg.Cache.Type, "error", err)
	}
	if analysisCache != nil {
		defer func() { _ = analysisCache.Close() }()
		opts = append(opts, services.WithCache(analysisCache, cache.NewCodec(cfg.Cache.Compress), cfg.Cache.TTL))
		logger.Info("Analysis cache enabled", "type", cfg.Cache.Type, "ttl", cfg.Cache.TTL)
	} else {
		logger.Info("Analysis cache disabled")
	}

	// Signal notifications (configurable backend)
	if cfg.Notify.Enabled {
		logger.Info("Connecting to notification broker", "type", cfg.Notify.Type, "url", cfg.Notify.URL)
		publisher, err := notify.NewPublisher(cfg.Notify)
		if err != nil {
			logger.Fatal("Failed to connect to notification broker", "error", err)
		}
		notifier := notify.NewNotifier(publisher, cfg.Notify.SubjectPrefix, cfg.Notify.Timeout)
		defer func() { _ = notifier.Close() }()
		opts = append(opts, services.WithNotifier(notifier))
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	chartService := services.NewChartService(logger, catalog, opts...)
	app := router.New(logger, chartService, recorder, *cfg, Version)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
