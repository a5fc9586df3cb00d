// Package batch runs many jobs concurrently on a bounded worker pool.
//
// Results are index-aligned with the inputs: result i always belongs to
// input i regardless of completion order. A failing, cancelled or panicking
// job only affects its own slot.
//
//	orch := batch.New(batch.Config{Concurrency: 4}, pipeline, batch.WithHistory(store))
//	results := orch.Run(ctx, []job.Input{job.FileInput("a.wav"), job.FileInput("b.mp3")})
package batch
