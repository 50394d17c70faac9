// Package history keeps each user's recent search queries in Redis.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "search:recent"

// RedisHistory stores recent queries as a capped Redis list, newest first.
type RedisHistory struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

func NewRedisHistory(client *redis.Client, limit int, ttl time.Duration) *RedisHistory {
	if limit <= 0 {
		limit = 10
	}
	return &RedisHistory{client: client, limit: limit, ttl: ttl}
}

func (h *RedisHistory) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", keyPrefix, userID)
}

// Push moves query to the head of the user's list, dropping older copies
// and anything beyond the limit.
func (h *RedisHistory) Push(ctx context.Context, userID uuid.UUID, query string) error {
	key := h.key(userID)

	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, key, 0, query)
		pipe.LPush(ctx, key, query)
		pipe.LTrim(ctx, key, 0, int64(h.limit-1))
		if h.ttl > 0 {
			pipe.Expire(ctx, key, h.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push recent search: %w", err)
	}
	return nil
}

func (h *RedisHistory) List(ctx context.Context, userID uuid.UUID) ([]string, error) {
	items, err := h.client.LRange(ctx, h.key(userID), 0, int64(h.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent searches: %w", err)
	}
	return items, nil
}

func (h *RedisHistory) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := h.client.Del(ctx, h.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	return nil
}
