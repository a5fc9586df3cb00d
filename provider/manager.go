package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kbukum/scribe/logger"
)

// Manager builds backends from named factories and hands one out per call,
// either the pinned backend or whatever the Selector picks among the live
// ones.
type Manager[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
	live      map[string]T
	pinned    string
	selector  Selector[T]
	log       *logger.Logger
}

// NewManager returns an empty Manager. A nil selector picks any reachable
// backend.
func NewManager[T Provider](selector Selector[T]) *Manager[T] {
	if selector == nil {
		selector = HealthCheckSelector[T]{}
	}
	return &Manager[T]{
		factories: make(map[string]Factory[T]),
		live:      make(map[string]T),
		selector:  selector,
		log:       logger.Get("provider"),
	}
}

// Register makes factory available under name, replacing any earlier one.
func (m *Manager[T]) Register(name string, factory Factory[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[name] = factory
}

// Backends returns the registered factory names, sorted.
func (m *Manager[T]) Backends() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.factories))
}

// Initialize builds the named backend with options and, if it implements
// Initializable, runs its Init. Only then does it become live.
func (m *Manager[T]) Initialize(ctx context.Context, name string, options map[string]any) error {
	m.mu.RLock()
	factory, ok := m.factories[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("backend %q not registered (have %v)", name, m.Backends())
	}

	p, err := factory(options)
	if err != nil {
		return fmt.Errorf("build backend %q: %w", name, err)
	}
	if in, ok := any(p).(Initializable); ok {
		if err := in.Init(ctx); err != nil {
			return fmt.Errorf("init backend %q: %w", name, err)
		}
	}

	m.mu.Lock()
	m.live[name] = p
	m.mu.Unlock()
	m.log.Info("backend ready", logger.Fields("backend", name))
	return nil
}

// Pin makes Get return the named live backend without consulting the
// selector.
func (m *Manager[T]) Pin(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[name]; !ok {
		return fmt.Errorf("backend %q not initialized", name)
	}
	m.pinned = name
	return nil
}

// Get returns the pinned backend, or the selector's choice among the live
// ones.
func (m *Manager[T]) Get(ctx context.Context) (T, error) {
	m.mu.RLock()
	if p, ok := m.live[m.pinned]; ok {
		m.mu.RUnlock()
		return p, nil
	}
	live := maps.Clone(m.live)
	m.mu.RUnlock()
	return m.selector.Select(ctx, live)
}

// Lookup returns a live backend by name.
func (m *Manager[T]) Lookup(name string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.live[name]
	return p, ok
}

// Live returns the names of the initialized backends, sorted.
func (m *Manager[T]) Live() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.live))
}

// Close closes every live backend implementing Closeable and forgets them
// all. Factories stay registered.
func (m *Manager[T]) Close(ctx context.Context) error {
	m.mu.Lock()
	live := m.live
	m.live = make(map[string]T)
	m.pinned = ""
	m.mu.Unlock()

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(live)) {
		if c, ok := any(live[name]).(Closeable); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close backend %q: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
