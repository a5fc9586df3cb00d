// Package component manages the lifecycle of the long-lived parts of the
// service: sidecar backends, telemetry and the HTTP server.
//
// Components are started in registration order, stopped in reverse order,
// and polled for health by the /health endpoint.
package component
