// Package ratelimit provides a Redis-backed fixed-window rate limiter for
// intake endpoints where limits must hold across server instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"introportal_backend/platform/logger"
)

// Limiter counts requests per identity in fixed time windows.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *logger.Logger
}

// New creates a limiter allowing limit requests per window per key.
func New(client *redis.Client, limit int, window time.Duration, log *logger.Logger) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		log:    log,
	}
}

// Allow reports whether the given key may proceed. The counter key is
// bucketed by window so expiry races cannot extend a window. Redis errors
// fail open: intake availability wins over strict limiting.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	counterKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		if l.log != nil {
			l.log.Warn("rate limiter unavailable, allowing request", "error", err.Error())
		}
		return true, nil
	}

	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, l.window).Err(); err != nil && l.log != nil {
			l.log.Warn("rate limiter expire failed", "key", counterKey, "error", err.Error())
		}
	}

	return count <= int64(l.limit), nil
}
