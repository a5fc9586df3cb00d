package provider_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/httpclient"
	"github.com/kbukum/scribe/provider"
	"github.com/kbukum/scribe/resilience"
)

var errSidecar = errors.New("sidecar unreachable")

type countingProvider struct {
	calls atomic.Int32
	err   error
	hold  chan struct{}
}

func (p *countingProvider) Name() string                       { return "counting" }
func (p *countingProvider) IsAvailable(_ context.Context) bool { return true }
func (p *countingProvider) Execute(_ context.Context, in string) (string, error) {
	p.calls.Add(1)
	if p.hold != nil {
		<-p.hold
	}
	if p.err != nil {
		return "", p.err
	}
	return "ok:" + in, nil
}

func TestWithResilience_EmptyConfigPassthrough(t *testing.T) {
	p := &echoProvider{name: "passthrough"}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{})
	if wrapped != provider.RequestResponse[string, string](p) {
		t.Error("expected empty config to return the provider unchanged")
	}
}

func TestWithResilience_NoRetryOnFailure(t *testing.T) {
	p := &countingProvider{err: errSidecar}
	cb := resilience.DefaultCircuitBreakerConfig("whisper")
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{CircuitBreaker: &cb})

	_, err := wrapped.Execute(context.Background(), "a.wav")
	if !errors.Is(err, errSidecar) {
		t.Fatalf("expected sidecar error to pass through, got %v", err)
	}
	if p.calls.Load() != 1 {
		t.Errorf("expected exactly 1 call, got %d", p.calls.Load())
	}
}

func TestWithResilience_CircuitBreakerFailsFast(t *testing.T) {
	p := &countingProvider{err: errSidecar}
	cb := resilience.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{CircuitBreaker: &cb})

	for i := 0; i < 2; i++ {
		_, _ = wrapped.Execute(context.Background(), "a.wav")
	}
	_, err := wrapped.Execute(context.Background(), "a.wav")

	if apperrors.CodeOf(err) != apperrors.ErrCodeServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen in chain, got %v", err)
	}
	if p.calls.Load() != 2 {
		t.Errorf("expected the open circuit to skip the call, got %d calls", p.calls.Load())
	}
}

func TestWithResilience_BulkheadFull(t *testing.T) {
	p := &countingProvider{hold: make(chan struct{})}
	bh := resilience.BulkheadConfig{MaxConcurrent: 1}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{Bulkhead: &bh})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = wrapped.Execute(context.Background(), "first")
	}()
	for p.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	_, err := wrapped.Execute(context.Background(), "second")
	close(p.hold)
	<-done

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.ErrCodeServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %s", appErr.Code)
	}
	if appErr.Details["reason"] != "concurrency limit reached" {
		t.Errorf("expected reason detail, got %v", appErr.Details)
	}
}

func TestWithResilience_RateLimiterCancelled(t *testing.T) {
	p := &countingProvider{}
	rl := resilience.RateLimiterConfig{Rate: 0.01, Burst: 1}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{RateLimiter: &rl})

	if _, err := wrapped.Execute(context.Background(), "first"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := wrapped.Execute(ctx, "second")
	if apperrors.CodeOf(err) != apperrors.ErrCodeCancelled {
		t.Errorf("expected CANCELLED, got %v", err)
	}
	if p.calls.Load() != 1 {
		t.Errorf("expected second call to be blocked, got %d calls", p.calls.Load())
	}
}

func TestWithResilience_CircuitState(t *testing.T) {
	cb := resilience.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute}
	wrapped := provider.WithResilience[string, string](&countingProvider{err: errSidecar},
		provider.ResilienceConfig{CircuitBreaker: &cb})

	type stater interface{ CircuitState() resilience.State }
	s, ok := wrapped.(stater)
	if !ok {
		t.Fatalf("%T does not report circuit state", wrapped)
	}
	if s.CircuitState() != resilience.StateClosed {
		t.Errorf("expected closed before any call, got %s", s.CircuitState())
	}
	_, _ = wrapped.Execute(context.Background(), "a.wav")
	if s.CircuitState() != resilience.StateOpen {
		t.Errorf("expected open, got %s", s.CircuitState())
	}
	if cb.Name != "" {
		t.Error("caller's config must not be modified")
	}
}

// scriptedProvider fails while failing is set, using fail to build the error.
type scriptedProvider struct {
	calls   atomic.Int32
	failing atomic.Bool
	fail    func(ctx context.Context) error
}

func (p *scriptedProvider) Name() string                       { return "scripted" }
func (p *scriptedProvider) IsAvailable(_ context.Context) bool { return true }
func (p *scriptedProvider) Execute(ctx context.Context, in string) (string, error) {
	p.calls.Add(1)
	if p.failing.Load() {
		return "", p.fail(ctx)
	}
	return "ok:" + in, nil
}

func TestWithResilience_CircuitIgnoresCallerFaults(t *testing.T) {
	cancelled := func() context.Context {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	tests := []struct {
		name      string
		fail      func(ctx context.Context) error
		ctx       func() (context.Context, context.CancelFunc)
		wantCalls int32
	}{
		{
			name: "cancelled before the call",
			fail: func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() },
			ctx: func() (context.Context, context.CancelFunc) {
				return cancelled(), func() {}
			},
			wantCalls: 0,
		},
		{
			name: "cancelled during the call",
			fail: func(ctx context.Context) error {
				<-ctx.Done()
				return apperrors.TranscriptionFailed("whisper", errors.New("request aborted"))
			},
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), time.Hour)
			},
			wantCalls: 3,
		},
		{
			name: "local read failure",
			fail: func(context.Context) error {
				return apperrors.IOError("read canonical audio", httpclient.ErrReadFile)
			},
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithCancel(context.Background())
			},
			wantCalls: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{fail: tt.fail}
			p.failing.Store(true)
			cb := resilience.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute}
			wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{CircuitBreaker: &cb})

			for i := range int32(3) {
				ctx, cancel := tt.ctx()
				done := make(chan struct{})
				go func() {
					defer close(done)
					if _, err := wrapped.Execute(ctx, "a.wav"); err == nil {
						t.Error("expected the faulty call to fail")
					}
				}()
				for tt.wantCalls > 0 && p.calls.Load() <= i {
					time.Sleep(time.Millisecond)
				}
				cancel()
				<-done
			}
			if got := p.calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}

			p.failing.Store(false)
			out, err := wrapped.Execute(context.Background(), "b.wav")
			if err != nil {
				t.Fatalf("healthy call after caller faults: %v", err)
			}
			if out != "ok:b.wav" {
				t.Errorf("out = %q", out)
			}
		})
	}
}
