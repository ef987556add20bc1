package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enkhjin/sportstream/internal/app"
	"github.com/enkhjin/sportstream/internal/config"
	"github.com/enkhjin/sportstream/internal/observability"
	"github.com/enkhjin/sportstream/internal/platform/logging"
	"github.com/enkhjin/sportstream/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	services, err := app.NewServices(cfg, logger)
	if err != nil {
		logger.Error("build services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := services.Ingestion.Bootstrap(ctx); err != nil {
		logger.Error("bootstrap leagues", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(
		services.Ingestion,
		services.Lifecycle,
		services.Crawl,
		services.GC,
		scheduler.Config{
			IngestInterval: cfg.IngestInterval,
			CrawlInterval:  cfg.CrawlInterval,
			GCInterval:     cfg.GCInterval,
			CrawlWorkers:   cfg.MaxExtractionWorkers,
		},
		logger,
	)

	logger.Info("crawler starting",
		"ingest_interval", cfg.IngestInterval,
		"crawl_interval", cfg.CrawlInterval,
		"gc_interval", cfg.GCInterval,
		"crawl_workers", cfg.MaxExtractionWorkers,
	)

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := stopPyroscope(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}
	if err := shutdownUptrace(shutdownCtx); err != nil {
		logger.Error("shutdown uptrace", "error", err)
	}

	logger.Info("crawler stopped")
}
