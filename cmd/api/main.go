package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"introportal_backend/internal/adapters"
	"introportal_backend/internal/events"
	apphttp "introportal_backend/internal/http"
	"introportal_backend/internal/http/router"
	identityprovider "introportal_backend/internal/identity/provider"
	identityrepo "introportal_backend/internal/identity/repository"
	identityservice "introportal_backend/internal/identity/service"
	"introportal_backend/internal/leads"
	"introportal_backend/internal/leads/ports"
	"introportal_backend/internal/listings"
	"introportal_backend/platform/config"
	"introportal_backend/platform/db"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/ratelimit"
	"introportal_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(cfg.GetDatabaseURL(), "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	events.RegisterLogging(eventBus, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Redis-backed intake rate limiter; disabled when Redis is not configured
	intakeLimiter, closeRedis := initIntakeLimiter(cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	resolver := identityservice.New(
		identityrepo.New(pool),
		identityprovider.NewPGProvider(pool),
		eventBus,
		cfg,
		log,
	)

	listingsModule := listings.NewModule(pool, val, log)

	captcha := adapters.NewTurnstileVerifier(cfg, log)
	if captcha == nil {
		log.Warn("CAPTCHA_SECRET not configured; guest submissions are not challenged")
	}

	var captchaPort ports.CaptchaVerifier
	if captcha != nil {
		captchaPort = captcha
	}

	leadsModule := leads.NewModule(
		pool,
		resolver,
		adapters.NewListingReader(listingsModule.Service()),
		captchaPort,
		intakeLimiter,
		eventBus,
		val,
		log,
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			listingsModule,
			leadsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initIntakeLimiter(cfg config.RateLimitConfig, log *logger.Logger) (ports.RateLimiter, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; intake rate limiting disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		return nil, nil
	}

	client := redis.NewClient(opt)
	limiter := ratelimit.New(client, cfg.GetIntakeRateLimit(), cfg.GetIntakeRateWindow(), log)

	return limiter, func() {
		_ = client.Close()
	}
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

	return errors.New(name + ": " + lastErr.Error())
}
