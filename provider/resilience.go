package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/httpclient"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/resilience"
)

// ResilienceConfig picks the guards placed in front of a backend. Nil
// fields are skipped; the zero value adds nothing.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
	Bulkhead       *resilience.BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// IsEmpty reports whether no guard is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.RateLimiter == nil && c.Bulkhead == nil
}

// WithResilience guards p with the configured rate limiter, bulkhead and
// circuit breaker, in that order. Calls are never retried. Rejections by a
// guard come back as *errors.AppError; errors from p pass through as is.
// An empty config returns p itself.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	g := &guarded[I, O]{inner: p}
	name := p.Name()
	log := logger.Get("resilience")
	if c := cfg.RateLimiter; c != nil {
		rc := *c
		rc.Name = name
		g.rl = resilience.NewRateLimiter(rc)
	}
	if c := cfg.Bulkhead; c != nil {
		bc := *c
		bc.Name = name
		if bc.OnReject == nil {
			bc.OnReject = func(name string) {
				log.Warn("backend saturated, call rejected", logger.Fields("backend", name))
			}
		}
		g.bh = resilience.NewBulkhead(bc)
	}
	if c := cfg.CircuitBreaker; c != nil {
		cc := *c
		cc.Name = name
		if cc.OnStateChange == nil {
			cc.OnStateChange = func(name string, from, to resilience.State) {
				log.Warn("circuit changed state", logger.Fields(
					"backend", name, "from", from.String(), "to", to.String()))
			}
		}
		if cc.IsFailure == nil {
			cc.IsFailure = backendFault
		}
		g.cb = resilience.NewCircuitBreaker(cc)
	}
	return g
}

type guarded[I, O any] struct {
	inner RequestResponse[I, O]
	rl    *resilience.RateLimiter
	bh    *resilience.Bulkhead
	cb    *resilience.CircuitBreaker
}

func (g *guarded[I, O]) Name() string                         { return g.inner.Name() }
func (g *guarded[I, O]) IsAvailable(ctx context.Context) bool { return g.inner.IsAvailable(ctx) }

// CircuitState reports the breaker state, closed when there is no breaker.
func (g *guarded[I, O]) CircuitState() resilience.State {
	if g.cb == nil {
		return resilience.StateClosed
	}
	return g.cb.State()
}

func (g *guarded[I, O]) Execute(ctx context.Context, in I) (O, error) {
	if err := ctx.Err(); err != nil {
		var zero O
		return zero, rejection(err)
	}
	var (
		out     O
		callErr error
		called  bool
	)
	base := func() error {
		called = true
		out, callErr = g.inner.Execute(ctx, in)
		if callErr != nil && errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}
		return callErr
	}
	call := base
	if g.cb != nil {
		call = func() error { return g.cb.Execute(base) }
	}
	err := g.run(ctx, call)
	if called {
		return out, callErr
	}
	var zero O
	return zero, rejection(err)
}

func (g *guarded[I, O]) run(ctx context.Context, call func() error) error {
	if g.rl != nil {
		if err := g.rl.Wait(ctx); err != nil {
			return err
		}
	}
	if g.bh != nil {
		return g.bh.Execute(ctx, call)
	}
	return call()
}

// backendFault reports whether err says something about the backend's
// health. Cancellations and local read failures do not.
func backendFault(err error) bool {
	if !resilience.CountsAsFailure(err) || errors.Is(err, httpclient.ErrReadFile) {
		return false
	}
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeCancelled, apperrors.ErrCodeIO:
		return false
	}
	return true
}

// rejection maps a guard's refusal to the error reported for the stage.
func rejection(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable("backend").WithCause(err)
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited().WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable("backend").WithCause(err).
			WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.Canceled):
		return apperrors.Cancelled("backend").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("backend").WithCause(err)
	}
	return err
}
