package limiter

import (
	"fmt"
	"marketplace_refunds/internal/conf"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPolicyName = "default"

// Manager holds one limiter per named policy.
type Manager struct {
	limiters map[string]Limiter
}

// NewManager builds the default policy and every named policy from configuration.
// Keys are namespaced as <namespace>ratelimit:<policy>:<identifier>.
func NewManager(cfg *conf.RateLimiterConfig, redisClient *redis.Client, namespace string) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rate limiter config is nil")
	}

	createLimiter := func(name string, policy conf.RateLimiterPolicy) (Limiter, error) {
		if policy.Limit <= 0 {
			return nil, fmt.Errorf("policy limit must be positive")
		}
		duration, err := time.ParseDuration(policy.Interval)
		if err != nil {
			return nil, fmt.Errorf("invalid policy interval format: %w", err)
		}
		if duration <= 0 {
			return nil, fmt.Errorf("policy interval must be positive")
		}

		rate := float64(policy.Limit) / duration.Seconds()
		prefix := fmt.Sprintf("%sratelimit:%s:", namespace, name)
		return NewRedisRateLimiter(redisClient, prefix, rate, float64(policy.Limit), duration*2), nil
	}

	limiters := make(map[string]Limiter, len(cfg.Policies)+1)
	def, err := createLimiter(DefaultPolicyName, cfg.Default)
	if err != nil {
		return nil, fmt.Errorf("failed to create default rate limiter: %w", err)
	}
	limiters[DefaultPolicyName] = def

	for name, policy := range cfg.Policies {
		l, err := createLimiter(name, policy)
		if err != nil {
			return nil, fmt.Errorf("failed to create policy '%s': %w", name, err)
		}
		limiters[name] = l
	}

	return &Manager{limiters: limiters}, nil
}

// NewStaticManager serves the same limiter for every policy.
func NewStaticManager(l Limiter) *Manager {
	return &Manager{limiters: map[string]Limiter{DefaultPolicyName: l}}
}

// Get returns the named policy, or the default policy when the name is unknown.
func (m *Manager) Get(name string) Limiter {
	if l, ok := m.limiters[name]; ok {
		return l
	}
	return m.limiters[DefaultPolicyName]
}
