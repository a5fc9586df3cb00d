package component

import "context"

// HealthStatus is what a component reports about itself.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is one component's entry in /health.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	// Critical components make the service unhealthy when they fail;
	// others only degrade it.
	Critical bool `json:"critical"`
}

// Component is a lifecycle-managed part of the service: the HTTP server,
// a sidecar backend, the telemetry exporters.
type Component interface {
	// Name is unique within a Registry.
	Name() string
	Start(ctx context.Context) error
	// Stop releases what Start acquired; ctx carries the stop deadline.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup log.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "server", "transcription", "diarization".
	Type string
	// Details is a one-liner such as "http://whisper:8387 model=base".
	Details string
	// Port is the primary port, 0 if not applicable.
	Port int
}

// Describable is optionally implemented by Components to report what they
// are and how they are configured.
type Describable interface {
	Describe() Description
}

// Overall folds component health into one status: unhealthy if a critical
// component is not healthy, degraded if any other component is not healthy.
func Overall(healths []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range healths {
		if h.Status == StatusHealthy {
			continue
		}
		if h.Critical {
			return StatusUnhealthy
		}
		status = StatusDegraded
	}
	return status
}
