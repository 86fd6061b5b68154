// Package cache provides the Redis access layer used by the gateway for
// shared rate-limit state.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The gateway issues one short script call per proxied request, so the pool
// stays small and fails fast rather than queueing behind a slow Redis.
const (
	poolSize        = 10
	minIdleConns    = 2
	poolTimeout     = time.Second
	connMaxIdleTime = 5 * time.Minute
)

// Cache holds the gateway's rate-limit buckets.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = connMaxIdleTime

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity. It backs the gateway's readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Reset drops every gateway rate-limit bucket and returns how many were
// removed. Other keys in the database are left alone.
func (c *Cache) Reset(ctx context.Context) (int, error) {
	var removed int
	iter := c.client.Scan(ctx, 0, rateLimitClientPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("delete %s: %w", iter.Val(), err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan rate-limit keys: %w", err)
	}
	return removed, nil
}
