package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"prospect-composer/internal/common/config"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLog); err != nil {
		zapLog.Error("worker manager stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) error {
	if err := cfg.ValidateRuntime(); err != nil {
		return err
	}
	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	d, err := connect(ctx, cfg, zapLog)
	if err != nil {
		return err
	}
	defer d.Close()

	svcs, err := newServices(ctx, cfg, d, log)
	if err != nil {
		return err
	}

	specs := buildWorkers(cfg, svcs, obs, log)
	workers := startWorkers(d.zeebe.GetClient(), cfg, specs, log)
	zapLog.Info("Workers registered", zap.Int("started", len(workers)), zap.Int("known", len(specs)))

	health := newHealthServer(cfg.Health.Port, d.checks(), zapLog)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(health.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping workers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopWorkers(workers)
		return health.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zapLog.Info("Worker manager stopped gracefully")
	return nil
}

// retryWithBackoff runs operation until it succeeds, doubling the delay after
// each failure. Cancelling ctx abandons the remaining attempts.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
			zap.Error(err),
			zap.Int("attempt", i+1),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", delay),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", operationName, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
