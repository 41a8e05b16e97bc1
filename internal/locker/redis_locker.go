package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	retryInterval    = 50 * time.Millisecond
	minRenewInterval = 10 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// extendScript pushes the expiry back only while the key still holds our token.
var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return 0
`)

// RedisLocker is a distributed Locker built on SET NX PX. A held lock is renewed every
// third of its TTL until released, so the TTL only bounds how long a crashed holder can
// block a key.
type RedisLocker struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	wait      time.Duration
	logger    *zap.Logger
}

func NewRedisLocker(client *redis.Client, namespace string, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		wait:      wait,
		logger:    logger.Named("RedisLocker"),
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("%slock:%s", l.namespace, key)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(lockKey, token, l.renew(lockKey, token)), nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// renew keeps lockKey alive until the returned stop function is called.
func (l *RedisLocker) renew(lockKey, token string) func() {
	interval := l.ttl / 3
	if interval < minRenewInterval {
		interval = minRenewInterval
	}
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				extended, err := extendScript.Run(ctx, l.client, []string{lockKey}, token, l.ttl.Milliseconds()).Int()
				cancel()
				if err != nil {
					l.logger.Warn("failed to renew lock", zap.Error(err), zap.String("key", lockKey))
					continue
				}
				if extended == 0 {
					l.logger.Error("lock was lost while held", zap.String("key", lockKey))
					return
				}
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}

func (l *RedisLocker) releaser(lockKey, token string, stopRenew func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			stopRenew()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock, it will expire on its own", zap.Error(err), zap.String("key", lockKey))
			}
		})
	}
}

var _ Locker = (*RedisLocker)(nil)
