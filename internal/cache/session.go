package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// MarkRevoked records that a session was signed out. The mark only needs
// to outlive the longest access token issued for the session.
func (c *Cache) MarkRevoked(ctx context.Context, sessionID string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key("session", "revoked", sessionID), 1, ttl).Err()
}

// IsRevoked reports whether a revocation mark exists for the session.
func (c *Cache) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	err := c.client.Get(ctx, c.key("session", "revoked", sessionID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
