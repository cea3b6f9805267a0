package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"introportal_backend/internal/adapters"
	"introportal_backend/internal/conversations"
	"introportal_backend/internal/events"
	leadsrepo "introportal_backend/internal/leads/repository"
	leadsservice "introportal_backend/internal/leads/service"
	listingsrepo "introportal_backend/internal/listings/repository"
	listingsservice "introportal_backend/internal/listings/service"
	"introportal_backend/internal/scheduler"
	"introportal_backend/platform/config"
	"introportal_backend/platform/db"
	"introportal_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	listingReader := adapters.NewListingReader(
		listingsservice.New(listingsrepo.New(pool), log),
	)
	leadsService := leadsservice.New(leadsrepo.New(pool), conversations.New(pool), listingReader, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, leadsService, log)
	if err != nil {
		log.Error("failed to create worker", "error", err)
		panic("failed to create worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to create periodic scheduler", "error", err)
		panic("failed to create periodic scheduler: " + err.Error())
	}

	go periodic.Run()
	defer periodic.Shutdown()

	worker.Run(ctx)
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
