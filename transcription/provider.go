package transcription

import (
	"context"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/provider"
)

// Provider is the interface that transcription backends implement.
type Provider interface {
	provider.Provider

	// Transcribe sends audio for transcription and returns the segments.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Decorate wraps p with logging, tracing and the resilience chain.
func Decorate(p Provider, res provider.ResilienceConfig, log *logger.Logger) Provider {
	rr := provider.Chain(
		provider.WithLogging[Request, *Response](log),
		provider.WithTracing[Request, *Response]("transcription"),
	)(&requestResponse{p: p})
	return &decorated{rr: provider.WithResilience(rr, res)}
}

// requestResponse exposes a Provider as provider.RequestResponse.
type requestResponse struct {
	p Provider
}

func (r *requestResponse) Name() string                         { return r.p.Name() }
func (r *requestResponse) IsAvailable(ctx context.Context) bool { return r.p.IsAvailable(ctx) }
func (r *requestResponse) Execute(ctx context.Context, req Request) (*Response, error) {
	return r.p.Transcribe(ctx, req)
}

// decorated turns a wrapped RequestResponse back into a Provider.
type decorated struct {
	rr provider.RequestResponse[Request, *Response]
}

func (d *decorated) Name() string                         { return d.rr.Name() }
func (d *decorated) IsAvailable(ctx context.Context) bool { return d.rr.IsAvailable(ctx) }
func (d *decorated) Transcribe(ctx context.Context, req Request) (*Response, error) {
	return d.rr.Execute(ctx, req)
}
