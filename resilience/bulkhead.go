package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrBulkheadFull is returned when no slot is free and MaxWait is zero.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout is returned when no slot freed up within MaxWait.
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig sizes a bulkhead.
type BulkheadConfig struct {
	Name string `yaml:"-" mapstructure:"-"`
	// MaxConcurrent is the maximum number of in-flight calls.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait is how long a caller waits for a slot. 0 fails immediately.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
	// OnReject is called whenever a call is turned away.
	OnReject func(name string) `yaml:"-" mapstructure:"-"`
}

// DefaultBulkheadConfig returns a bulkhead sized for a single sidecar.
func DefaultBulkheadConfig(name string) BulkheadConfig {
	return BulkheadConfig{Name: name, MaxConcurrent: 4, MaxWait: 30 * time.Second}
}

// Bulkhead caps the number of concurrent calls into one backend. A sidecar
// running one model instance serializes requests anyway, so extra calls
// only queue on its socket.
type Bulkhead struct {
	cfg   BulkheadConfig
	sem   *semaphore.Weighted
	inUse atomic.Int64
}

// NewBulkhead returns a bulkhead with cfg.MaxConcurrent slots (4 if unset).
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Bulkhead{cfg: cfg, sem: semaphore.NewWeighted(int64(cfg.MaxConcurrent))}
}

// Execute runs fn in a slot. Without one it returns ErrBulkheadFull,
// ErrBulkheadTimeout or ctx's error and fn is not called.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		if b.cfg.OnReject != nil {
			b.cfg.OnReject(b.cfg.Name)
		}
		return err
	}
	b.inUse.Add(1)
	defer func() {
		b.inUse.Add(-1)
		b.sem.Release(1)
	}()
	return fn()
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		return nil
	}
	if b.cfg.MaxWait <= 0 {
		return ErrBulkheadFull
	}
	wait, cancel := context.WithTimeout(ctx, b.cfg.MaxWait)
	defer cancel()
	if err := b.sem.Acquire(wait, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBulkheadTimeout
	}
	return nil
}

// InUse returns the number of calls currently holding a slot.
func (b *Bulkhead) InUse() int { return int(b.inUse.Load()) }

// Available returns the number of free slots.
func (b *Bulkhead) Available() int { return b.cfg.MaxConcurrent - b.InUse() }
