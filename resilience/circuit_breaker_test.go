package resilience

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

var errSidecar = errors.New("sidecar unreachable")

const openFor = 20 * time.Millisecond

func newTestBreaker(maxFailures int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{Name: "whisper", MaxFailures: maxFailures, Timeout: openFor})
}

func fail() error    { return errSidecar }
func succeed() error { return nil }

func TestCircuitBreaker_Opens(t *testing.T) {
	cb := newTestBreaker(3)
	for i := range 3 {
		if err := cb.Execute(fail); !errors.Is(err, errSidecar) {
			t.Fatalf("call %d: err = %v, want the sidecar error", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("call ran while open")
	}
}

func TestCircuitBreaker_SuccessBreaksTheRun(t *testing.T) {
	cb := newTestBreaker(3)
	for _, fn := range []func() error{fail, fail, succeed, fail} {
		_ = cb.Execute(fn)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
	if cb.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", cb.Failures())
	}
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	tests := []struct {
		name  string
		probe func() error
		want  State
	}{
		{"probe success closes", succeed, StateClosed},
		{"probe failure reopens", fail, StateOpen},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cb := newTestBreaker(1)
			_ = cb.Execute(fail)
			if cb.State() != StateOpen {
				t.Fatalf("state = %s, want open", cb.State())
			}

			time.Sleep(2 * openFor)
			if cb.State() != StateHalfOpen {
				t.Fatalf("state = %s, want half-open", cb.State())
			}
			_ = cb.Execute(tc.probe)
			if cb.State() != tc.want {
				t.Errorf("state = %s, want %s", cb.State(), tc.want)
			}
		})
	}
}

func TestCircuitBreaker_OneProbeAtATime(t *testing.T) {
	cb := newTestBreaker(1)
	_ = cb.Execute(fail)
	time.Sleep(2 * openFor)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error { close(started); <-release; return nil })
	}()
	<-started

	if err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second probe err = %v, want ErrCircuitOpen", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "pyannote",
		MaxFailures: 1,
		Timeout:     openFor,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(fail)
	time.Sleep(2 * openFor)
	_ = cb.Execute(succeed)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"pyannote:closed->open", "pyannote:open->half-open", "pyannote:half-open->closed"}
	if !slices.Equal(seen, want) {
		t.Errorf("transitions = %v, want %v", seen, want)
	}
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	errLocal := errors.New("local disk")
	tests := []struct {
		name      string
		isFailure func(error) bool
		err       error
		wantState State
	}{
		{"sidecar error trips", nil, errSidecar, StateOpen},
		{"cancellation ignored", nil, fmt.Errorf("post: %w", context.Canceled), StateClosed},
		{"custom classifier", func(err error) bool { return !errors.Is(err, errLocal) }, errLocal, StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute, IsFailure: tt.isFailure})
			for range 3 {
				_ = cb.Execute(func() error { return tt.err })
			}
			if cb.State() != tt.wantState {
				t.Errorf("state = %s, want %s", cb.State(), tt.wantState)
			}
		})
	}
}
