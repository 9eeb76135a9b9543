// Package resilience provides rate limiting for wrapped tool invocations.
//
// Mutating system tools are not meant to be hammered: a runaway caller
// looping over useradd is an incident, not a workload. The limiter bounds
// per-tool invocation rate. There is no retry or backoff machinery here,
// since mutating commands run at most once.
package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter controls execution rate.
type RateLimiter interface {
	// Allow checks if execution is allowed for the given tool.
	Allow(tool string) bool

	// Wait blocks until execution is allowed or context is canceled.
	Wait(ctx context.Context, tool string) error

	// SetLimit updates the rate limit for a tool.
	SetLimit(tool string, limit rate.Limit, burst int)
}

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// DefaultLimit is the default invocations per second.
	DefaultLimit float64

	// DefaultBurst is the default burst size.
	DefaultBurst int

	// PerTool enables per-tool rate limiting.
	PerTool bool

	// ToolLimits contains per-tool rate limits.
	ToolLimits map[string]ToolLimit
}

// ToolLimit defines the rate limit for a specific tool.
type ToolLimit struct {
	Limit float64
	Burst int
}

// DefaultRateLimiterConfig returns default configuration.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultLimit: 10,
		DefaultBurst: 20,
		PerTool:      true,
		ToolLimits:   make(map[string]ToolLimit),
	}
}

// rateLimiter implements RateLimiter.
type rateLimiter struct {
	config        RateLimiterConfig
	globalLimiter *rate.Limiter
	toolLimiters  map[string]*rate.Limiter
	mu            sync.RWMutex
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) RateLimiter {
	rl := &rateLimiter{
		config:        config,
		globalLimiter: rate.NewLimiter(rate.Limit(config.DefaultLimit), config.DefaultBurst),
		toolLimiters:  make(map[string]*rate.Limiter),
	}

	// Initialize per-tool limiters
	for tool, limit := range config.ToolLimits {
		rl.toolLimiters[tool] = rate.NewLimiter(rate.Limit(limit.Limit), limit.Burst)
	}

	return rl
}

// Allow implements RateLimiter.Allow.
func (rl *rateLimiter) Allow(tool string) bool {
	if !rl.config.PerTool {
		return rl.globalLimiter.Allow()
	}

	limiter := rl.getLimiter(tool)
	return limiter.Allow()
}

// Wait implements RateLimiter.Wait.
func (rl *rateLimiter) Wait(ctx context.Context, tool string) error {
	if !rl.config.PerTool {
		return rl.globalLimiter.Wait(ctx)
	}

	limiter := rl.getLimiter(tool)
	return limiter.Wait(ctx)
}

// SetLimit implements RateLimiter.SetLimit.
func (rl *rateLimiter) SetLimit(tool string, limit rate.Limit, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.toolLimiters[tool]; ok {
		limiter.SetLimit(limit)
		limiter.SetBurst(burst)
	} else {
		rl.toolLimiters[tool] = rate.NewLimiter(limit, burst)
	}
}

func (rl *rateLimiter) getLimiter(tool string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.toolLimiters[tool]
	rl.mu.RUnlock()

	if ok {
		return limiter
	}

	// Create new limiter with default settings
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if existing, ok := rl.toolLimiters[tool]; ok {
		return existing
	}

	newLimiter := rate.NewLimiter(rate.Limit(rl.config.DefaultLimit), rl.config.DefaultBurst)
	rl.toolLimiters[tool] = newLimiter
	return newLimiter
}
