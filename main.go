package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kickstarter-scraper/config"
	"kickstarter-scraper/fetch"
	"kickstarter-scraper/services"
	"kickstarter-scraper/storage"
	"kickstarter-scraper/utils"
)

func main() {
	// ================== Bootstrap ====================
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Bad configuration: %v", err)
		os.Exit(1)
	}

	logger.Info("Kickstarter Campaign Scraping System")
	logger.Info("Mode: %s | Driver: %s", cfg.Mode, cfg.DBDriver)
	logger.Info("Concurrency: %d | Rate delay: %dms | Retries: %d",
		cfg.MaxConcurrency, cfg.RateLimitDelay, cfg.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =================== Database Setup ========================================
	var store storage.Store
	if cfg.DBDriver == "sqlite" {
		store, err = storage.NewSQLiteStore(cfg.SQLitePath, logger)
	} else {
		store, err = storage.NewPostgresStore(cfg.DatabaseURL, logger)
	}
	if err != nil {
		logger.Error("Cannot open database: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.CreateTables(); err != nil {
		logger.Error("Failed to create DB tables: %v", err)
		os.Exit(1)
	}

	// =============== Fetcher ===================================
	var fetcher fetch.Fetcher
	if cfg.UseBrowser {
		browser := fetch.NewBrowser(cfg, logger)
		defer browser.Close()
		fetcher = browser
	} else {
		fetcher = fetch.NewClient(cfg, logger)
	}

	// =============== Pipeline ===================================
	pipeline := services.NewPipeline(cfg, logger, fetcher, store)

	switch cfg.Mode {
	case "campaigns":
		seeds, err := services.LoadSeeds(cfg.SeedCSVPath)
		if err != nil {
			logger.Error("Cannot load seeds: %v", err)
			os.Exit(1)
		}
		if err := pipeline.RunCampaigns(ctx, seeds); err != nil {
			logger.Error("Campaign run aborted: %v", err)
		}

	case "creators":
		ids, err := services.LoadCreatorIDs(cfg.CreatorIDPath)
		if err != nil {
			logger.Error("Cannot load creator IDs: %v", err)
			os.Exit(1)
		}
		if err := pipeline.RunCreators(ctx, ids); err != nil {
			logger.Error("Creator run aborted: %v", err)
		}

	case "archive":
		archive, err := fetch.OpenArchive(cfg.ArchivePath)
		if err != nil {
			logger.Error("Cannot open archive: %v", err)
			os.Exit(1)
		}
		if err := pipeline.RunArchive(ctx, archive); err != nil {
			logger.Error("Archive run aborted: %v", err)
		}
	}

	// ==== Quality report ============================
	if rows := pipeline.MissingFieldRows(); len(rows) > 0 {
		reportWriter := storage.NewReportWriter(cfg.ReportCSVPath, logger)
		if err := reportWriter.WriteMissingFields(rows); err != nil {
			logger.Error("Failed to write quality report: %v", err)
			// Non-fatal: the run itself succeeded
		}
	}

	services.PrintRunReport(pipeline.Report())
}
