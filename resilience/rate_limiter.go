package resilience

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// ErrRateLimited means no token could be had in time.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig sizes a token bucket.
type RateLimiterConfig struct {
	Name string `yaml:"-" mapstructure:"-"`
	// Rate is in calls per second.
	Rate  float64 `yaml:"rate" mapstructure:"rate"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// DefaultRateLimiterConfig allows 10 calls/s with bursts of 20.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{Name: name, Rate: 10, Burst: 20}
}

// RateLimiter paces calls to one backend.
type RateLimiter struct {
	cfg RateLimiterConfig
	lim *rate.Limiter
}

// NewRateLimiter returns a limiter whose bucket starts full.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	return &RateLimiter{cfg: cfg, lim: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
}

// Allow takes a token without waiting.
func (rl *RateLimiter) Allow() bool { return rl.lim.Allow() }

// Wait blocks for a token. It returns ctx.Err() once ctx is done and
// ErrRateLimited when the token would only arrive after ctx's deadline.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.lim.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRateLimited
	}
	return nil
}

// Tokens reports the tokens currently in the bucket.
func (rl *RateLimiter) Tokens() float64 { return rl.lim.Tokens() }
