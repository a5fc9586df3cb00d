package provider

import "context"

// Provider is a named model backend that can report whether it is reachable.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// Factory builds a backend from the options map of its config section.
type Factory[T Provider] func(options map[string]any) (T, error)

// RequestResponse is a backend driven by one call per job: an audio file in,
// a set of timed segments out.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Initializable backends are checked by Manager.Initialize before use,
// for example to reject a sidecar URL that does not parse.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable backends release idle connections on Manager.Close.
type Closeable interface {
	Close(ctx context.Context) error
}
