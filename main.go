package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"divar-tracker/config"
	"divar-tracker/scraper/divar"
	"divar-tracker/scraper/tgju"
	"divar-tracker/services"
	"divar-tracker/storage"
	"divar-tracker/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger(utils.LogConfig{}).Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(utils.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With("run_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	// One date for the whole run, even if it crosses midnight.
	runDate := time.Now()
	logger.Info("=== Divar market tracker starting ===",
		"run_date", runDate.Format(time.DateOnly),
		"db_host", cfg.PostgresHost,
		"db_name", cfg.PostgresDB,
		"http_timeout", cfg.HTTPTimeout)

	pgWriter, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.DBConnectRetries, logger)
	if err != nil {
		return err
	}
	defer pgWriter.Close()

	if err := pgWriter.EnsureSchema(ctx); err != nil {
		return err
	}

	divarClient := divar.New(cfg, logger)
	sweeper := services.NewSweeper(divarClient.BaseURL(), divarClient, pgWriter, logger)

	if cfg.CSVOutputPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			return err
		}
		defer csvWriter.Close()
		sweeper.WithSnapshot(csvWriter)
	}

	grid := services.DefaultGrid()
	logger.Info("Sweeping listing counts", "combinations", grid.Size())

	report, err := sweeper.Run(ctx, runDate, grid.All())
	if err != nil {
		return err
	}
	logger.Info("Sweep finished", "stored", report.Stored, "skipped", report.Failed)

	if err := pgWriter.RefreshViews(ctx, storage.DefaultViews()); err != nil {
		return err
	}
	logger.Info("Materialized views rebuilt")

	rates, inserted, err := services.NewRateSync(tgju.New(cfg, logger), pgWriter, logger).Run(ctx)
	if err != nil {
		return err
	}

	summary := services.NewSummaryService(logger)
	summary.Print(os.Stdout, summary.Generate(runDate, report, rates, inserted))
	return nil
}
