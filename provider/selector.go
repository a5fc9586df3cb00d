package provider

import (
	"context"
	"errors"
	"maps"
	"slices"
)

// ErrNoBackend is returned when no candidate backend answers IsAvailable.
var ErrNoBackend = errors.New("no reachable backend")

// Selector chooses one backend among the initialized ones.
type Selector[T Provider] interface {
	Select(ctx context.Context, providers map[string]T) (T, error)
}

// HealthCheckSelector returns the first reachable backend in name order.
type HealthCheckSelector[T Provider] struct{}

func (HealthCheckSelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	return firstReachable(ctx, providers, slices.Sorted(maps.Keys(providers)))
}

// PrioritySelector returns the first reachable backend from Order.
// Names in Order that were never initialized are skipped.
type PrioritySelector[T Provider] struct {
	Order []string
}

func (s PrioritySelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	return firstReachable(ctx, providers, s.Order)
}

func firstReachable[T Provider](ctx context.Context, providers map[string]T, names []string) (T, error) {
	for _, name := range names {
		p, ok := providers[name]
		if ok && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	var zero T
	return zero, ErrNoBackend
}
