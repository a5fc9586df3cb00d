package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/observability"
)

// DefaultConcurrency is the worker pool size when none is configured.
const DefaultConcurrency = 4

// Config configures an Orchestrator.
type Config struct {
	// Concurrency caps the workers of a single batch.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" validate:"omitempty,min=1"`
	// MaxActiveJobs caps running jobs across all batches of the process.
	// Zero disables the cap.
	MaxActiveJobs int `mapstructure:"max_active_jobs" yaml:"max_active_jobs" validate:"omitempty,min=1"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
}

// Runner runs a single job. *job.Pipeline implements it.
type Runner interface {
	RunWithID(ctx context.Context, id string, in job.Input) job.Result
	NewJobID() string
}

// Orchestrator fans inputs out to a Runner and collects the results.
type Orchestrator struct {
	cfg     Config
	runner  Runner
	store   history.Store
	log     *logger.Logger
	metrics *observability.PipelineMetrics
	active  *semaphore.Weighted
	newID   func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistory appends a record to store after every batch.
func WithHistory(store history.Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithLogger sets the orchestrator logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics records batch sizes.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator.
func New(cfg Config, runner Runner, opts ...Option) *Orchestrator {
	cfg.ApplyDefaults()
	o := &Orchestrator{
		cfg:    cfg,
		runner: runner,
		log:    logger.NewNop(),
		newID:  uuid.NewString,
	}
	if cfg.MaxActiveJobs > 0 {
		o.active = semaphore.NewWeighted(int64(cfg.MaxActiveJobs))
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Concurrency returns the configured pool size.
func (o *Orchestrator) Concurrency() int { return o.cfg.Concurrency }

// Run processes inputs and blocks until every job has finished.
func (o *Orchestrator) Run(ctx context.Context, inputs []job.Input, opts ...StartOption) []job.Result {
	return o.Start(ctx, inputs, opts...).Wait()
}

// Batch is a running set of jobs.
type Batch struct {
	id      string
	jobIDs  []string
	cancels []context.CancelFunc
	results []job.Result
	done    chan struct{}
}

// ID returns the batch id.
func (b *Batch) ID() string { return b.id }

// JobIDs returns the job ids, index-aligned with the inputs.
func (b *Batch) JobIDs() []string { return append([]string(nil), b.jobIDs...) }

// Len returns the number of jobs in the batch.
func (b *Batch) Len() int { return len(b.jobIDs) }

// Cancel cancels job i only. It reports false for an out of range index.
func (b *Batch) Cancel(i int) bool {
	if i < 0 || i >= len(b.cancels) {
		return false
	}
	b.cancels[i]()
	return true
}

// CancelAll cancels every job in the batch.
func (b *Batch) CancelAll() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

// Done is closed once every job has finished.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch completes and returns a copy of the results.
func (b *Batch) Wait() []job.Result {
	<-b.done
	return append([]job.Result(nil), b.results...)
}

// StartOption configures a single batch.
type StartOption func(*startOptions)

type startOptions struct {
	source string
}

// Source labels the batch in history.
func Source(s string) StartOption {
	return func(o *startOptions) { o.source = s }
}

// Start launches the batch and returns without waiting.
func (o *Orchestrator) Start(ctx context.Context, inputs []job.Input, opts ...StartOption) *Batch {
	var so startOptions
	for _, opt := range opts {
		opt(&so)
	}
	b := &Batch{
		id:      o.newID(),
		jobIDs:  make([]string, len(inputs)),
		cancels: make([]context.CancelFunc, len(inputs)),
		results: make([]job.Result, len(inputs)),
		done:    make(chan struct{}),
	}

	ctx = logger.ContextWithBatchID(ctx, b.id)
	ctx, span := observability.StartSpan(ctx, observability.SpanBatch)
	observability.SetSpanAttribute(ctx, observability.AttrBatchID, b.id)
	observability.SetSpanAttribute(ctx, observability.AttrBatchSize, len(inputs))
	o.metrics.RecordBatch(ctx, len(inputs))

	jobCtxs := make([]context.Context, len(inputs))
	for i := range inputs {
		b.jobIDs[i] = o.runner.NewJobID()
		jobCtxs[i], b.cancels[i] = context.WithCancel(ctx)
	}

	log := o.log.WithContext(ctx)
	workers := min(len(inputs), o.cfg.Concurrency)
	log.Info("batch started", logger.Fields("jobs", len(inputs), "workers", workers))
	start := time.Now()

	go func() {
		defer close(b.done)
		defer span.End()

		if len(inputs) > 0 {
			var g errgroup.Group
			g.SetLimit(workers)
			for i := range inputs {
				g.Go(func() error {
					defer b.cancels[i]()
					b.results[i] = o.runJob(jobCtxs[i], b.jobIDs[i], inputs[i])
					return nil
				})
			}
			_ = g.Wait()
		}

		failed := 0
		for _, r := range b.results {
			if !r.Succeeded() {
				failed++
			}
		}
		log.Info("batch finished", logger.Fields(
			"jobs", len(inputs),
			"failed", failed,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))

		if o.store != nil && len(inputs) > 0 {
			rec := history.Record{BatchID: b.id, CreatedAt: start, Source: so.source, Results: b.results}
			if err := o.store.Append(context.WithoutCancel(ctx), rec); err != nil {
				log.Error("history append failed", logger.Fields(logger.FieldError, err.Error()))
			}
		}
	}()

	return b
}

// runJob runs one job. A panic that escapes the runner becomes an
// INTERNAL_ERROR result at StageUnknown.
func (o *Orchestrator) runJob(ctx context.Context, id string, in job.Input) (res job.Result) {
	defer func() {
		if r := recover(); r != nil {
			o.log.WithContext(ctx).Error("job panicked", logger.Fields(
				logger.FieldJobID, id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			))
			res = job.Failed(id, in.Name, job.StageUnknown, apperrors.Internal(fmt.Errorf("panic: %v", r)))
		}
	}()

	if o.active != nil {
		if err := o.active.Acquire(ctx, 1); err != nil {
			return job.Failed(id, in.Name, job.StageReceive, apperrors.Cancelled(string(job.StageReceive)).WithCause(err))
		}
		defer o.active.Release(1)
	}
	return o.runner.RunWithID(ctx, id, in)
}

var _ Runner = (*job.Pipeline)(nil)
