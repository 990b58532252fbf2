package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dailyspend/internal/backend"
	"dailyspend/internal/cache"
	"dailyspend/internal/cli"
	apphttp "dailyspend/internal/http"
	"dailyspend/internal/log"
)

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentApp)
	if err != nil {
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            res.Service,
		Logger:             logger,
		Currency:           cfg.Currency,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		GridCacheTTL:       cfg.CacheTTL,
	})
	srv.MaxHeaderBytes = 1 << 16

	caches := cache.NewManager()
	if grids := srv.GridCache(); grids != nil {
		caches.Register("calendar_grids", grids)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting dailyspend server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"events_enabled", cfg.EventsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(cfg.ShutdownTimeout)
		defer shutdownCancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return srv.RateLimiter().Run(gctx) })

	if cfg.CacheTTL > 0 {
		g.Go(func() error { return caches.Run(gctx, max(cfg.CacheTTL, time.Minute)) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
