package middleware

import (
	"net/http"
	"slices"
)

// Middleware is the net/http form used for server-wide concerns that wrap
// the root mux. Route-scoped concerns are gin.HandlerFuncs.
type Middleware func(http.Handler) http.Handler

// Chain nests mws so that the first one sees the request first.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, mw := range slices.Backward(mws) {
			h = mw(h)
		}
		return h
	}
}
