// Package locks provides short-lived named locks shared across service instances.
package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/models"
	"gioservice_backend/pkg/utils"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when another holder keeps the lock past the retry window.
var ErrBusy = errors.New("resource is locked by another request")

const (
	defaultTTL   = 30 * time.Second
	retryBackoff = 100 * time.Millisecond
	retryLimit   = 30
)

// Locker acquires a named lock. The returned func releases it and is safe to defer.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// InventoryItemKey names the lock serializing movements of one item.
func InventoryItemKey(itemID int64) string {
	return fmt.Sprintf("lock:inventory:item:%d", itemID)
}

// PayrollRangeKey names the lock serializing period creation for one date range.
func PayrollRangeKey(start, end models.Date) string {
	return fmt.Sprintf("lock:payroll:%s:%s", start, end)
}

// RedisLocker uses redislock with a bounded linear retry.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: defaultTTL}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryBackoff), retryLimit),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrBusy, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtaining lock %s: %w", key, err)
	}
	return func() {
		// The request context may already be done; release with a fresh one.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			utils.LogWarn("failed to release lock", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}, nil
}

// Noop is used when Redis is not configured; the database row locks still apply.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
