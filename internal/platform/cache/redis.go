package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "khata:balance"

// RedisBalanceCache shares projected balances between instances.
type RedisBalanceCache struct {
	rdb *redis.Client
}

// NewRedisBalanceCache wraps a connected client.
func NewRedisBalanceCache(rdb *redis.Client) *RedisBalanceCache {
	return &RedisBalanceCache{rdb: rdb}
}

var _ repositories.BalanceCache = (*RedisBalanceCache)(nil)

type redisBalance struct {
	Balance decimal.Decimal `json:"balance"`
	Version int64           `json:"version"`
}

func (c *RedisBalanceCache) Version(ctx context.Context, userID, shopID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(userID, shopID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get balance version: %w", err)
	}
	return v, nil
}

func (c *RedisBalanceCache) Get(ctx context.Context, userID, shopID string) (*repositories.CachedBalance, bool, error) {
	raw, err := c.rdb.Get(ctx, valueKey(userID, shopID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get balance: %w", err)
	}
	var b redisBalance
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, false, fmt.Errorf("decode cached balance: %w", err)
	}
	return &repositories.CachedBalance{Balance: b.Balance, Version: b.Version}, true, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, userID, shopID string, value repositories.CachedBalance, ttl time.Duration) error {
	raw, err := json.Marshal(redisBalance{Balance: value.Balance, Version: value.Version})
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, valueKey(userID, shopID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set balance: %w", err)
	}
	return nil
}

func (c *RedisBalanceCache) Bump(ctx context.Context, userID, shopID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userID, shopID))
		pipe.Del(ctx, valueKey(userID, shopID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis bump balance version: %w", err)
	}
	return nil
}

func versionKey(userID, shopID string) string {
	return fmt.Sprintf("%s:ver:%s:%s", keyPrefix, userID, shopID)
}

func valueKey(userID, shopID string) string {
	return fmt.Sprintf("%s:val:%s:%s", keyPrefix, userID, shopID)
}
