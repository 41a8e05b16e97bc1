package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request from an identifier may proceed.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
}

// tokenBucketScript refills and takes from a token bucket in one atomic step.
var tokenBucketScript = redis.NewScript(`
	local tokens_key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local requested = tonumber(ARGV[4])
	local expire_seconds = math.ceil(tonumber(ARGV[5]))

	local bucket = redis.call("HMGET", tokens_key, "tokens", "last_refill")
	local tokens = tonumber(bucket[1])
	local last_refill = tonumber(bucket[2])

	if tokens == nil then
		tokens = capacity
		last_refill = now
	else
		tokens = math.min(capacity, tokens + (now - last_refill) * rate)
		last_refill = now
	end

	if tokens < requested then
		return 0
	end

	tokens = tokens - requested
	redis.call("HSET", tokens_key, "tokens", tokens, "last_refill", last_refill)
	redis.call("EXPIRE", tokens_key, expire_seconds)
	return 1
`)

// RedisRateLimiter is a token bucket shared by every instance through Redis.
type RedisRateLimiter struct {
	redisClient   *redis.Client
	prefix        string
	rate          float64 // tokens per second
	bucketSize    float64
	keyExpiration time.Duration
}

// NewRedisRateLimiter creates a limiter whose keys live under prefix.
func NewRedisRateLimiter(redisClient *redis.Client, prefix string, rate float64, size float64, expiration time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		redisClient:   redisClient,
		prefix:        prefix,
		rate:          rate,
		bucketSize:    size,
		keyExpiration: expiration,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := l.prefix + identifier
	now := float64(time.Now().UnixNano()) / 1e9

	result, err := tokenBucketScript.Run(ctx, l.redisClient, []string{key}, l.rate, l.bucketSize, now, 1.0, l.keyExpiration.Seconds()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit script: %w", err)
	}
	return result == int64(1), nil
}

// AllowAll never limits. It stands in when no Redis is configured in dev mode.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, string) (bool, error) { return true, nil }

var (
	_ Limiter = (*RedisRateLimiter)(nil)
	_ Limiter = AllowAll{}
)
