package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	), nil
}

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Job outcome labels.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// PipelineMetrics holds the instruments recorded by the job pipeline and the
// batch orchestrator.
type PipelineMetrics struct {
	jobs          metric.Int64Counter
	jobsActive    metric.Int64UpDownCounter
	stageDuration metric.Float64Histogram
	batchSize     metric.Int64Histogram
}

// NewPipelineMetrics creates the instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	jobs, err := meter.Int64Counter("scribe.jobs",
		metric.WithDescription("Finished jobs by outcome and failing stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scribe.jobs counter: %w", err)
	}

	jobsActive, err := meter.Int64UpDownCounter("scribe.jobs.active",
		metric.WithDescription("Jobs currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scribe.jobs.active counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("scribe.stage.duration",
		metric.WithDescription("Duration of pipeline stages in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scribe.stage.duration histogram: %w", err)
	}

	batchSize, err := meter.Int64Histogram("scribe.batch.size",
		metric.WithDescription("Number of inputs per batch"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scribe.batch.size histogram: %w", err)
	}

	return &PipelineMetrics{
		jobs:          jobs,
		jobsActive:    jobsActive,
		stageDuration: stageDuration,
		batchSize:     batchSize,
	}, nil
}

// JobStarted increments the active job gauge. A nil receiver is a no-op.
func (m *PipelineMetrics) JobStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, 1)
}

// JobFinished decrements the active gauge and counts the outcome. stage is
// the failing stage, empty for a successful job.
func (m *PipelineMetrics) JobFinished(ctx context.Context, status, stage string) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, -1)
	m.jobs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("stage", stage),
	))
}

// RecordStage records how long one stage took and whether it failed.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordBatch records the size of a submitted batch.
func (m *PipelineMetrics) RecordBatch(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.batchSize.Record(ctx, int64(size))
}
