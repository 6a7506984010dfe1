package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vastai-scraper/config"
	"vastai-scraper/scraper/vastai"
	"vastai-scraper/services"
	"vastai-scraper/storage"
	"vastai-scraper/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	logger := utils.NewLogger(utils.LogOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})

	store := storage.NewDailyFileStore(cfg.DataDir, nil)
	if err := store.EnsureDir(); err != nil {
		logger.Error("Failed to create data directory: %v", err)
		os.Exit(1)
	}

	var writer storage.OfferWriter = store
	var closers []io.Closer
	if cfg.DatabaseURL != "" {
		pgWriter, err := storage.NewPostgresWriter(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		closers = append(closers, pgWriter)
		writer = storage.MultiWriter{store, pgWriter}
		logger.Info("Mirroring offers to PostgreSQL (table: offers)")
	}

	var pinger services.Pinger
	if cfg.HealthcheckURL != "" {
		pinger = services.NewHealthPinger(cfg.HealthcheckURL, cfg.HealthcheckTimeout, logger)
	}

	orchestrator := services.NewOrchestrator(services.OrchestratorOptions{
		Fetcher:      vastai.New(vastai.OptionsFromConfig(cfg), logger),
		Writer:       writer,
		Pinger:       pinger,
		ListingTypes: cfg.ListingTypes,
		RateLimit:    cfg.RateLimit,
	}, logger)

	scheduler, err := services.NewScheduler(cfg.Schedule, orchestrator.RunCycle, logger)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	logger.With(utils.Fields{
		"schedule": cfg.Schedule,
		"dataDir":  cfg.DataDir,
		"types":    cfg.ListingTypes,
	}).Info("Starting vast.ai scraper")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		os.Exit(shutdown(<-sigs, logger, closers...))
	}()

	scheduler.Start()
	select {}
}

// shutdown releases the optional sinks and returns the exit code.
func shutdown(sig os.Signal, logger utils.Logger, closers ...io.Closer) int {
	logger.With(utils.Fields{"signal": sig.String()}).Info("Shutting down")
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close writer: %v", err)
		}
	}
	return 0
}
