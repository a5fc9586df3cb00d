package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/scribe/logger"
)

// StopTimeout bounds each component's Stop call inside StopAll.
const StopTimeout = 10 * time.Second

type entry struct {
	c       Component
	started bool
}

// Registry starts components in registration order and stops them in
// reverse. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
	log     *logger.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{log: log.WithComponent("components")}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if slices.ContainsFunc(r.entries, func(e *entry) bool { return e.c.Name() == name }) {
		return fmt.Errorf("component %s already registered", name)
	}
	r.entries = append(r.entries, &entry{c: c})
	return nil
}

// StartAll starts every component not yet started and stops at the first
// failure. Components started before it stay up until StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.started {
			continue
		}
		name := e.c.Name()
		if err := e.c.Start(ctx); err != nil {
			r.log.WithError(err).Error("component failed to start", logger.Fields(logger.FieldComponent, name))
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true
		r.log.Info("component started", describe(e.c))
	}
	return nil
}

func describe(c Component) map[string]any {
	fields := logger.Fields(logger.FieldComponent, c.Name())
	d, ok := c.(Describable)
	if !ok {
		return fields
	}
	desc := d.Describe()
	fields["type"] = desc.Type
	if desc.Details != "" {
		fields["details"] = desc.Details
	}
	if desc.Port > 0 {
		fields["port"] = desc.Port
	}
	return fields
}

// StopAll stops started components in reverse order, giving each at most
// StopTimeout. Every component gets its Stop call even when an earlier one
// fails; the errors are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, e := range slices.Backward(r.entries) {
		if !e.started {
			continue
		}
		e.started = false
		name := e.c.Name()
		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		err := e.c.Stop(stopCtx)
		cancel()
		if err != nil {
			r.log.WithError(err).Error("component failed to stop", logger.Fields(logger.FieldComponent, name))
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			continue
		}
		r.log.Info("component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll polls every registered component, started or not.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.Lock()
	all := r.components()
	r.mu.Unlock()
	out := make([]Health, len(all))
	for i, c := range all {
		out[i] = c.Health(ctx)
	}
	return out
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.components()
}

func (r *Registry) components() []Component {
	out := make([]Component, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.c
	}
	return out
}
