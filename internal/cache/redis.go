// Package cache provides Redis access and the export lock implementations.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyNamespace prefixes every key muckamuck writes, so a shared Redis can
// host other applications.
const KeyNamespace = "muckamuck:"

// Cache holds the Redis connection used for cross-process export locks.
type Cache struct {
	client    *redis.Client
	namespace string
}

// New connects to redisURL and verifies the connection. The client is closed
// again when the ping fails.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Lock traffic only: a handful of short SETNX/EVAL calls per export.
	opt.ClientName = "muckamuck"
	opt.PoolSize = 4
	opt.MinIdleConns = 1
	opt.DialTimeout = 3 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client, namespace: KeyNamespace}, nil
}

// Key returns k inside the muckamuck namespace.
func (c *Cache) Key(k string) string {
	return c.namespace + k
}

// Ping implements the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying client to tests and tooling.
func (c *Cache) Client() *redis.Client {
	return c.client
}
