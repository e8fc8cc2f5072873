package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

const (
	// CountsTTL bounds how stale a cached count can get if an invalidation
	// is lost.
	CountsTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// GetCounts returns the cached status counts for a user.
func (c *Cache) GetCounts(ctx context.Context, userID string) (model.StatusCounts, error) {
	result, err := c.client.HGetAll(ctx, c.key("counts", userID)).Result()
	if err != nil {
		return model.StatusCounts{}, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 {
		return model.StatusCounts{}, ErrCacheMiss
	}
	return parseCounts(result)
}

// SetCounts caches the status counts for a user.
func (c *Cache) SetCounts(ctx context.Context, userID string, counts model.StatusCounts) error {
	key := c.key("counts", userID)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"total":     counts.Total,
		"pending":   counts.Pending,
		"completed": counts.Completed,
	})
	pipe.Expire(ctx, key, CountsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateCounts drops the cached counts for a user.
func (c *Cache) InvalidateCounts(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key("counts", userID)).Err()
}

func parseCounts(fields map[string]string) (model.StatusCounts, error) {
	var counts model.StatusCounts
	for name, dst := range map[string]*int{
		"total":     &counts.Total,
		"pending":   &counts.Pending,
		"completed": &counts.Completed,
	} {
		raw, ok := fields[name]
		if !ok {
			return model.StatusCounts{}, ErrCacheMiss
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.StatusCounts{}, ErrCacheMiss
		}
		*dst = n
	}
	if counts.Pending+counts.Completed != counts.Total {
		return model.StatusCounts{}, ErrCacheMiss
	}
	return counts, nil
}
