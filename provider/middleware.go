package provider

import (
	"context"
	"time"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/observability"
)

// Middleware wraps a backend call with extra behavior.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares so that Chain(a, b)(p) == a(b(p)).
func Chain[I, O any](mws ...Middleware[I, O]) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(mws) - 1; i >= 0; i-- {
			rr = mws[i](rr)
		}
		return rr
	}
}

// wrapped forwards Name and IsAvailable and replaces Execute.
type wrapped[I, O any] struct {
	inner RequestResponse[I, O]
	exec  func(ctx context.Context, input I) (O, error)
}

func (w *wrapped[I, O]) Name() string                         { return w.inner.Name() }
func (w *wrapped[I, O]) IsAvailable(ctx context.Context) bool { return w.inner.IsAvailable(ctx) }
func (w *wrapped[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return w.exec(ctx, input)
}

// WithLogging logs every backend call with its duration. Failures are
// logged at warn since the job layer reports them again as stage errors.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &wrapped[I, O]{inner: inner, exec: func(ctx context.Context, input I) (O, error) {
			start := time.Now()
			out, err := inner.Execute(ctx, input)
			fields := logger.Fields(
				"backend", inner.Name(),
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if err != nil {
				log.WithError(err).Warn("backend call failed", fields)
			} else {
				log.Debug("backend call done", fields)
			}
			return out, err
		}}
	}
}

// WithTracing opens a "<stage>.<backend>" span around every call.
func WithTracing[I, O any](stage string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &wrapped[I, O]{inner: inner, exec: func(ctx context.Context, input I) (O, error) {
			ctx, span := observability.StartSpan(ctx, stage+"."+inner.Name())
			defer span.End()
			observability.SetSpanAttribute(ctx, observability.AttrOperationName, stage)
			out, err := inner.Execute(ctx, input)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return out, err
		}}
	}
}
