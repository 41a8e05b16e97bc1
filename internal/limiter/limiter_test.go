package limiter

import (
	"context"
	"fmt"
	"marketplace_refunds/internal/conf"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(nil, nil, "ns:")
	require.Error(t, err)

	_, err = NewManager(&conf.RateLimiterConfig{Default: conf.RateLimiterPolicy{Interval: "1s", Limit: 0}}, nil, "ns:")
	require.Error(t, err)

	_, err = NewManager(&conf.RateLimiterConfig{Default: conf.RateLimiterPolicy{Interval: "soon", Limit: 1}}, nil, "ns:")
	require.Error(t, err)

	m, err := NewManager(&conf.RateLimiterConfig{
		Default:  conf.RateLimiterPolicy{Interval: "1s", Limit: 10},
		Policies: map[string]conf.RateLimiterPolicy{"refunds": {Interval: "1m", Limit: 5}},
	}, nil, "ns:")
	require.NoError(t, err)

	refunds := m.Get("refunds").(*RedisRateLimiter)
	assert.Equal(t, "ns:ratelimit:refunds:", refunds.prefix)
	assert.Equal(t, m.Get(DefaultPolicyName), m.Get("missing"))
}

func TestStaticManager(t *testing.T) {
	m := NewStaticManager(AllowAll{})
	ok, err := m.Get("refunds").Allow(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := tcRedis.Run(ctx, "redis:7.4-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisRateLimiter(client, fmt.Sprintf("test:%d:", time.Now().UnixNano()), 0.001, 2, time.Minute)

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "operator-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := l.Allow(ctx, "operator-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "operator-2")
	require.NoError(t, err)
	assert.True(t, ok)
}
