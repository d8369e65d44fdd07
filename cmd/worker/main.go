package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/app"
	"github.com/yared-ayele-debela/tournament-events/internal/config"
	"github.com/yared-ayele-debela/tournament-events/internal/observability"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

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

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.NewPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}

	runErr := make(chan error, 1)
	go func() {
		logger.Info("worker starting",
			"service", cfg.ServiceName,
			"env", cfg.AppEnv,
		)
		runErr <- pipeline.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer failed", "error", err)
		}
	}
	stop()

	if err := pipeline.Close(); err != nil {
		logger.Error("pipeline close", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownUptrace(shutdownCtx); err != nil {
		logger.Error("uptrace shutdown", "error", err)
	}
	if err := stopPyroscope(); err != nil {
		logger.Error("pyroscope stop", "error", err)
	}
	if err := observability.StopPprofServer(pprofServer, logger, 5*time.Second); err != nil {
		logger.Error("pprof shutdown", "error", err)
	}

	logger.Info("worker stopped")
}
