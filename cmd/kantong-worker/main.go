package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"kantong/internal/amqp"
	"kantong/internal/backend"
	"kantong/internal/cli"
	"kantong/internal/config"
	"kantong/internal/log"
	"kantong/internal/services"
	"kantong/internal/worker"
)

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		cli.Fatal(logger, "Worker error", err)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}
	if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
		// A memory store is private to this process, so updates would never reach the API.
		return errors.New("the worker needs a shared data backend; DATA_BACKEND=memory is not supported")
	}

	logger.Info("Starting kantong-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	res, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Cleanup()
	store := res.Store

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	streaks := services.NewStreakCounter(store, store, services.Clock{Location: cfg.Location()}, logger)
	return worker.NewStreakWorker(streaks).Run(ctx, client)
}
