// Package auth provides bearer-token authentication for the scribe API.
//
// Subpackages:
//
//   - auth/jwt      generic HMAC JWT token service
//   - auth/authctx  type-safe request context propagation for claims
//
// Authentication is enabled by setting a secret:
//
//	server:
//	  auth:
//	    secret: "${SCRIBE_JWT_SECRET}"
//	    access_token_ttl: "24h"
//
// Tokens are issued with `scribe token <subject>` and validated by the
// server's Auth middleware through a TokenValidator.
package auth
