// Package observability wires OpenTelemetry tracing and metrics.
//
// When Config.Enabled is false nothing is exported and the global OTel
// providers stay no-ops, so spans and instruments cost almost nothing.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "scribe", version.Version, cfg.Environment)
//	defer shutdown(context.Background())
//
//	metrics, _ := observability.NewPipelineMetrics(observability.Meter("scribe"))
//	ctx, span := observability.StartSpan(ctx, "job.transcribe")
//	defer span.End()
package observability
