// Package authctx carries the verified token claims of an API request from
// the auth middleware to handlers and rate limiting.
package authctx

import (
	"context"

	"github.com/kbukum/scribe/auth"
)

type claimsKey struct{}

// With returns ctx carrying claims.
func With(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// Claims returns the claims stored by With. ok is false for anonymous
// requests, which is every request when authentication is disabled.
func Claims(ctx context.Context) (claims *auth.Claims, ok bool) {
	claims, ok = ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// Subject returns the token subject, or "" for anonymous requests.
func Subject(ctx context.Context) string {
	if c, ok := Claims(ctx); ok {
		return c.Subject
	}
	return ""
}
