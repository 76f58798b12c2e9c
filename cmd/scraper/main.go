// cmd/scraper/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/kbrooks/land-tracker/internal/config"
	"github.com/kbrooks/land-tracker/internal/fetch"
	"github.com/kbrooks/land-tracker/internal/runner"
	"github.com/kbrooks/land-tracker/internal/storage"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := config.Load("configs")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logg := logger.New("scraper")
	defer logg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.Storage, logg)
	if err != nil {
		logg.Fatalw("initializing storage", "error", err)
	}
	defer store.Close(context.Background())

	fetcher := fetch.NewClient(cfg.Scraping.Timeout(), cfg.Scraping.RetryCount, cfg.Scraping.UserAgent, logg)
	run, err := runner.New(cfg, fetcher, store, logg)
	if err != nil {
		logg.Fatalw("building runner", "error", err)
	}

	runCycle := func() {
		if _, err := run.RunOnce(ctx); err != nil {
			logg.Errorw("scrape run failed", "error", err)
		}
	}

	runCycle()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Scraping.Schedule, runCycle); err != nil {
		logg.Fatalw("scheduling runs", "schedule", cfg.Scraping.Schedule, "error", err)
	}
	c.Start()
	logg.Infow("scheduler started", "schedule", cfg.Scraping.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logg.Info("shutdown signal received")
	cancel()
	<-c.Stop().Done()
}
