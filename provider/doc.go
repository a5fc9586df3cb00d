// Package provider holds the generic plumbing shared by the transcription and
// diarization backends.
//
// A backend is registered with a Manager by name through a Factory, built from
// its config options and then pinned or picked per call by a Selector.
// Calls are modelled as RequestResponse[I, O] so cross-cutting behavior can be
// layered with Middleware:
//
//	rr := provider.Chain(
//	    provider.WithLogging[Req, *Resp](log),
//	    provider.WithTracing[Req, *Resp]("scribe"),
//	)(raw)
//	rr = provider.WithResilience(rr, provider.ResilienceConfig{
//	    CircuitBreaker: &cb,
//	    Bulkhead:       &bh,
//	})
//
// The resilience chain is RateLimiter → Bulkhead → CircuitBreaker → call.
// There is no retry layer; a failed call surfaces as a failed job stage.
package provider
