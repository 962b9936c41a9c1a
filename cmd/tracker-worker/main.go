package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/cli"
	"tracker/internal/log"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/worker"
)

// resyncInterval bounds how long a dropped event can leave the sheet stale.
const resyncInterval = 24 * time.Hour

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration invalid", log.FieldError, err)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	mirror, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	syncWorker := worker.NewSyncWorker(repo, mirror)

	logger.Info("Performing startup sync")
	if err := syncWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	go func() {
		ticker := time.NewTicker(resyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mirror.InvalidateRowCache()
				if err := syncWorker.StartupSync(ctx); err != nil {
					logger.Error("Periodic resync failed", log.FieldError, err)
				}
			}
		}
	}()

	logger.Info("Consuming transaction events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	if err := client.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = client.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
