package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/provider"
	"github.com/kbukum/scribe/util"
)

// backendComponent reports a model sidecar's reachability on /health and
// closes its provider on shutdown. Sidecars may come up after scribe, so
// Start never fails on an unreachable backend.
type backendComponent struct {
	kind     string
	provider provider.Provider
	cfg      BackendConfig
	closeFn  func(ctx context.Context) error
}

var (
	_ component.Component   = (*backendComponent)(nil)
	_ component.Describable = (*backendComponent)(nil)
)

func newBackendComponent(kind string, p provider.Provider, cfg BackendConfig, closeFn func(ctx context.Context) error) *backendComponent {
	return &backendComponent{kind: kind, provider: p, cfg: cfg, closeFn: closeFn}
}

func (b *backendComponent) Name() string { return b.kind }

func (b *backendComponent) Start(context.Context) error { return nil }

func (b *backendComponent) Stop(ctx context.Context) error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn(ctx)
}

// Health is critical: no job can succeed without either backend.
func (b *backendComponent) Health(ctx context.Context) component.Health {
	h := component.Health{Name: b.kind, Status: component.StatusHealthy, Critical: true}
	if !b.provider.IsAvailable(ctx) {
		h.Status = component.StatusUnhealthy
		h.Message = fmt.Sprintf("%s backend unreachable", b.provider.Name())
	}
	return h
}

func (b *backendComponent) Describe() component.Description {
	details := "backend=" + b.cfg.Backend
	for _, key := range []string{"url", "base_url", "model"} {
		if v, ok := b.cfg.Options[key]; ok {
			details += fmt.Sprintf(" %s=%v", key, v)
		}
	}
	if token, ok := b.cfg.Options["auth_token"].(string); ok && token != "" {
		details += " token=" + util.MaskSecret(token, 3)
	}
	if !b.cfg.Resilience.IsEmpty() {
		details += " resilience=on"
	}
	return component.Description{Type: b.kind, Details: details}
}

// telemetryComponent owns the OTLP exporters.
type telemetryComponent struct {
	cfg      *Config
	mu       sync.Mutex
	shutdown observability.ShutdownFunc
}

var (
	_ component.Component   = (*telemetryComponent)(nil)
	_ component.Describable = (*telemetryComponent)(nil)
)

func newTelemetryComponent(cfg *Config) *telemetryComponent {
	return &telemetryComponent{cfg: cfg}
}

func (t *telemetryComponent) Name() string { return "telemetry" }

func (t *telemetryComponent) Start(ctx context.Context) error {
	shutdown, err := observability.Setup(ctx, t.cfg.Observability, t.cfg.Name, t.cfg.Version, t.cfg.Environment)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.shutdown = shutdown
	t.mu.Unlock()
	return nil
}

func (t *telemetryComponent) Stop(ctx context.Context) error {
	t.mu.Lock()
	shutdown := t.shutdown
	t.shutdown = nil
	t.mu.Unlock()
	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

func (t *telemetryComponent) Health(context.Context) component.Health {
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}

func (t *telemetryComponent) Describe() component.Description {
	if !t.cfg.Observability.Enabled {
		return component.Description{Type: "telemetry", Details: "disabled"}
	}
	return component.Description{Type: "telemetry", Details: "otlp http://" + t.cfg.Observability.Endpoint}
}
