package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisShopLocker serialises work per shop across instances.
type RedisShopLocker struct {
	locker  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
}

// NewRedisShopLocker creates a locker on a connected client. ttl bounds how long a
// crashed holder can keep a shop locked.
func NewRedisShopLocker(rdb *redis.Client, ttl time.Duration) *RedisShopLocker {
	return &RedisShopLocker{
		locker:  redislock.New(rdb),
		ttl:     ttl,
		backoff: 50 * time.Millisecond,
	}
}

var _ repositories.ShopLocker = (*RedisShopLocker)(nil)

// Lock retries until the lock is obtained or ctx is done.
func (l *RedisShopLocker) Lock(ctx context.Context, userID, shopID string) (func(context.Context) error, error) {
	lockKey := fmt.Sprintf("khata:lock:%s:%s", userID, shopID)
	lock, err := l.locker.Obtain(ctx, lockKey, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.backoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: shop %s is busy", apperrors.ErrConflict, shopID)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain shop lock: %w", err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
