// Package resilience guards calls to the model sidecars.
//
//   - CircuitBreaker wraps sony/gobreaker and fails fast once a backend has
//     failed MaxFailures times in a row.
//   - Bulkhead caps concurrent calls with a weighted semaphore.
//   - RateLimiter paces calls with an x/time/rate token bucket.
//
// Failed stages are never retried; the job reports the failure instead.
// The provider package chains the three in the order
// RateLimiter → Bulkhead → CircuitBreaker.
package resilience
