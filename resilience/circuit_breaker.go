package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State is a circuit breaker state; it prints as closed, open or half-open.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// ErrCircuitOpen is returned, without running the call, while the breaker
// is open or its half-open probes are all in flight.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	Name string `yaml:"-" mapstructure:"-"`
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is the open period before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls probes must all succeed to close the circuit again.
	HalfOpenMaxCalls int                               `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`
	OnStateChange    func(name string, from, to State) `yaml:"-" mapstructure:"-"`
	// IsFailure decides which errors count against the backend. Errors it
	// rejects are recorded as successes. Defaults to CountsAsFailure.
	IsFailure func(err error) bool `yaml:"-" mapstructure:"-"`
}

// CountsAsFailure is the default failure classifier: any error except a
// cancellation by the caller.
func CountsAsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// DefaultCircuitBreakerConfig returns the defaults used for sidecar clients.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{Name: name, MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenMaxCalls: 1}
}

// CircuitBreaker fails fast once a backend has failed MaxFailures times in a row.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewCircuitBreaker returns a closed breaker; zero fields take the defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	isFailure := cfg.IsFailure
	if isFailure == nil {
		isFailure = CountsAsFailure
	}
	trip := uint32(cfg.MaxFailures)
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   uint32(cfg.HalfOpenMaxCalls),
		Timeout:       cfg.Timeout,
		ReadyToTrip:   func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= trip },
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  func(err error) bool { return !isFailure(err) },
	})}
}

// Execute runs fn unless the circuit refuses it with ErrCircuitOpen.
func (b *CircuitBreaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) { return struct{}{}, fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current state, moving an expired open circuit to half-open.
func (b *CircuitBreaker) State() State { return b.cb.State() }

// Failures is the current run of consecutive failures.
func (b *CircuitBreaker) Failures() int { return int(b.cb.Counts().ConsecutiveFailures) }
