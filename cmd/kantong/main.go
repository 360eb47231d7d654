package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"kantong/internal/amqp"
	"kantong/internal/cache"
	"kantong/internal/cli"
	"kantong/internal/config"
	"kantong/internal/core"
	apphttp "kantong/internal/http"
	"kantong/internal/log"
	"kantong/internal/services"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	res, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Cleanup()
	store := res.Store

	clock := services.Clock{Location: cfg.Location()}
	streaks := services.NewStreakCounter(store, store, clock, logger)

	categoryCache := cache.NewLRUCache[core.Category](cfg.CategoryCacheSize, cfg.CategoryCacheTTL)
	cacheManager := cache.NewManager(cfg.CategoryCacheTTL)
	cacheManager.Register("categories", categoryCache)
	categories := services.NewCategoryService(store, categoryCache, clock, logger)

	checks := map[string]apphttp.ReadinessCheck{"storage": store.Ping}

	// Streak updates go to the broker when one is configured, otherwise to the
	// in-process dispatcher.
	var (
		notifier   services.EntryNotifier
		dispatcher *services.StreakDispatcher
	)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()
		notifier = client
		checks["amqp"] = client.Ping
		logger.Info("Streak updates published to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		dispatcher = services.NewStreakDispatcher(streaks, services.StreakDispatcherConfig{
			Workers:   cfg.StreakWorkers,
			QueueSize: cfg.StreakQueueSize,
		}, logger)
		if err := dispatcher.Start(ctx); err != nil {
			return err
		}
		notifier = dispatcher
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Services{
		Budgets:    services.NewBudgetLedger(store, store, store, clock, logger),
		Goals:      services.NewGoalTracker(store, store, clock, logger),
		Categories: categories,
		Expenses:   services.NewExpenseService(store, store, store, categories, notifier, clock, logger),
		Streaks:    streaks,
	}, checks, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting kantong server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})

	g.Go(func() error {
		return cacheManager.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if dispatcher != nil {
			// Requests are drained first so no event is enqueued after the queue closes.
			if stopErr := dispatcher.Stop(shutdownCtx); stopErr != nil {
				logger.Warn("Streak dispatcher did not drain", log.FieldError, stopErr)
			}
		}
		return err
	})

	return g.Wait()
}
