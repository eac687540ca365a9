package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate limits per provider (requests per second). Discogs allows
// 60 authenticated requests per minute.
var defaultRateLimits = map[ProviderName]rate.Limit{
	NameDiscogs: 1,
}

// RateLimiterMap holds one rate.Limiter per provider, created once at startup.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[ProviderName]*rate.Limiter
}

// NewRateLimiterMap creates all provider rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[ProviderName]*rate.Limiter, len(defaultRateLimits)),
	}
	for name, limit := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(limit, 1)
	}
	return m
}

// SetLimit replaces the limit for a provider. A limit of rate.Inf disables
// throttling, which tests use against local servers.
func (m *RateLimiterMap) SetLimit(name ProviderName, limit rate.Limit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.limiters[name]; ok {
		l.SetLimit(limit)
		return
	}
	m.limiters[name] = rate.NewLimiter(limit, 1)
}

// Wait blocks until the rate limiter for the given provider allows a request,
// or the context is canceled.
func (m *RateLimiterMap) Wait(ctx context.Context, name ProviderName) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
