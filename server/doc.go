// Package server provides the scribe HTTP server: Gin behind an
// http.ServeMux, served over HTTP/1.1 and h2c.
//
// # Middleware
//
// Server-wide (server/middleware, net/http form):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: caps upload size
//   - RequestLogger: request logging with duration
//
// Route-scoped (Gin form):
//
//   - Auth / RequireScope: bearer-token validation via auth.TokenValidator
//   - RateLimit: per-client token bucket with Retry-After
//   - Metrics: Prometheus request counter and latency histogram
//
// # Endpoints
//
// RegisterDefaultEndpoints adds /health, /alive, /ready, /info, /version,
// and /metrics (Prometheus exposition from the server's registry).
package server
