// Package cache provides the Redis access layer: session revocation marks,
// per-user status counts and rate limit buckets. Every key lives under one
// namespace so several deployments can share a Redis database.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces keys when Config.KeyPrefix is empty.
const DefaultKeyPrefix = "taskdeck:"

// Config describes the Redis connection.
type Config struct {
	URL       string
	KeyPrefix string
	PoolSize  int // zero keeps the go-redis default
}

// Cache wraps a Redis client with the application's key layout.
type Cache struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	// Counts and revocation checks sit on the request path; fail fast.
	opt.PoolTimeout = 2 * time.Second
	opt.ReadTimeout = time.Second
	opt.WriteTimeout = time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{client: client, prefix: normalizePrefix(cfg.KeyPrefix)}, nil
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return DefaultKeyPrefix
	}
	if !strings.HasSuffix(p, ":") {
		p += ":"
	}
	return p
}

// key joins parts under the cache namespace, e.g. "taskdeck:counts:<user>".
func (c *Cache) key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

// Ping checks Redis connectivity for /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Purge deletes every key in this cache's namespace. Tests use it instead
// of flushing a database that other namespaces may share.
func (c *Cache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}
