package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dailyspend/internal/amqp"
	"dailyspend/internal/backend"
	"dailyspend/internal/cache"
	"dailyspend/internal/cli"
	"dailyspend/internal/config"
	"dailyspend/internal/log"
	gsheet "dailyspend/internal/sheets/google"
	"dailyspend/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentWorker)
	if err != nil {
		os.Exit(1)
	}
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	logger.Info("Starting dailyspend-worker")

	sheetsClient, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare sheet", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(sheetsClient)

	if cfg.MirrorBackfillOnStartup {
		if err := backfill(ctx, logger, cfg, mirror); err != nil {
			// The consumer still keeps the mirror current from here on.
			logger.Error("Startup backfill failed", log.FieldError, err)
		}
	}

	caches := cache.NewManager()
	caches.Register("sheet_ids", sheetsClient.Cache())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return amqpClient.Consume(gctx, mirror.HandleEvent) })
	g.Go(func() error { return caches.Run(gctx, time.Hour) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// backfill copies every stored expense to the sheet. Rows already present
// are skipped by the mirror.
func backfill(ctx context.Context, logger *log.Logger, cfg *config.Config, mirror *worker.MirrorWorker) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	// The worker only reads; it must not publish events of its own.
	backendCfg.AMQPURL = ""

	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer res.Close()

	n, err := mirror.Backfill(ctx, res.Store)
	if err != nil {
		return err
	}
	logger.Info("Startup backfill complete", "expenses", n)
	return nil
}
