// Package cache wraps all Redis access behind small, injectable stores:
// the ranking sorted set, per-member recommendation lists, signup
// verification codes, and a distributed lock for scheduled jobs.
//
// Every store carries its key name(s) and a per-call timeout from
// configuration rather than hard-coding them, so tests and deployments
// can point at isolated namespaces. Redis is treated throughout as a
// derived, disposable projection: callers own the fallback behavior
// when a store reports an error.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/2eungwoo/moum-backend/internal/config"
)

// NewClient builds a go-redis client from configuration and verifies
// connectivity with a single PING bounded by the configured op timeout.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// withTimeout derives a bounded child context for one Redis round trip.
// An unbounded blocking cache call would defeat the read path's
// fallback design, so every store call goes through here.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
