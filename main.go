package main

import (
	"flag"
	"fmt"
	"os"

	"apartment-tracker/config"
	"apartment-tracker/notify"
	"apartment-tracker/scraper/streeteasy"
	"apartment-tracker/services"
	"apartment-tracker/storage"
	"apartment-tracker/utils"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "run the full pipeline without sending alerts or persisting the seen set")
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration error: %v", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	logger.Info("=== NYC Apartment Tracker starting ===")
	logger.Info("Config — neighborhoods: %v | price: $%d–$%d | beds: %v | delay: %ds",
		cfg.Neighborhoods, cfg.MinPrice, cfg.MaxPrice, cfg.BedRooms, cfg.RequestDelaySeconds)

	var store storage.SeenStore
	switch cfg.SeenBackend {
	case "postgres":
		pg, err := storage.NewPostgresStore(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			os.Exit(1)
		}
		store = pg
	default:
		store = storage.NewFileStore(cfg.SeenPath, logger)
	}
	defer store.Close()

	var notifier services.Notifier
	if cfg.DiscordWebhookURL != "" {
		notifier = notify.NewDiscord(cfg.DiscordWebhookURL, cfg.DiscordUsername, cfg.DiscordAvatarURL, logger)
	} else {
		logger.Warn("DISCORD_WEBHOOK_URL not set — alerts will be logged, not delivered")
		notifier = notify.NewNoop(logger)
	}

	fetcher := streeteasy.NewFetcher(cfg, logger)
	defer fetcher.Close()

	urls := streeteasy.NewURLBuilder(cfg)
	tracker := services.NewTracker(cfg, logger, fetcher, streeteasy.NewParser(logger), urls.Search, notifier, store)

	report, err := tracker.Run()
	if err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}

	for _, sum := range report.Neighborhoods {
		if sum.FetchFailed {
			logger.Warn("%-20s fetch failed", sum.Slug)
			continue
		}
		logger.Info("%-20s %d parsed | %d new | %d duplicate | %d sponsored | %d price drop(s)",
			sum.Slug, sum.Parsed, sum.New, sum.Duplicates, sum.Sponsored, sum.PriceDrops)
	}

	fmt.Printf("  Done. %d new listing(s), %d price drop(s), %d tracked in total\n\n",
		report.TotalNew, report.TotalPriceDrops, report.TotalTracked)
}
