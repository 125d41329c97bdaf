// Package badge serves the cart item count shown in the storefront header.
// The count lives in Redis as a disposable mirror of the cart table.
package badge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 10 * time.Minute

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func cartCountKey(userID string) string {
	return "cart:count:" + userID
}

// Seed overwrites the mirrored count for userID.
func (c *RedisCache) Seed(ctx context.Context, userID string, count int) error {
	if err := c.client.Set(ctx, cartCountKey(userID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", cartCountKey(userID), err)
	}
	return nil
}

// Get reports found=false when nothing is mirrored for userID.
func (c *RedisCache) Get(ctx context.Context, userID string) (count int, found bool, err error) {
	raw, err := c.client.Get(ctx, cartCountKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", cartCountKey(userID), err)
	}

	count, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cart count %q: %w", raw, err)
	}
	return count, true, nil
}
