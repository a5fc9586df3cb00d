package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/auth"
	"github.com/kbukum/scribe/auth/authctx"
	apperrors "github.com/kbukum/scribe/errors"
)

// AuthConfig configures bearer-token checks on a route group.
type AuthConfig struct {
	Validator auth.TokenValidator
	// SkipPaths are path prefixes served without a token.
	SkipPaths []string
}

// Auth verifies the bearer token and stores its claims in the request
// context for authctx and RequireScope.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if slices.ContainsFunc(cfg.SkipPaths, func(p string) bool { return strings.HasPrefix(path, p) }) {
			c.Next()
			return
		}

		token, reason := bearer(c.GetHeader("Authorization"))
		if reason == "" {
			claims, err := cfg.Validator.ValidateToken(token)
			if err == nil {
				c.Request = c.Request.WithContext(authctx.With(c.Request.Context(), claims))
				c.Next()
				return
			}
			reason = "invalid token"
		}
		c.Header("WWW-Authenticate", `Bearer realm="scribe"`)
		abort(c, apperrors.Unauthorized(reason))
	}
}

// bearer extracts the token, or says what is wrong with the header.
func bearer(header string) (token, reason string) {
	if header == "" {
		return "", "authorization header required"
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid authorization header format"
	}
	return strings.TrimSpace(token), ""
}

// RequireScope answers 403 when the token lacks scope. Requests without
// claims pass, since authentication is then disabled.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := authctx.Claims(c.Request.Context()); ok && !claims.HasScope(scope) {
			abort(c, apperrors.Forbidden("token lacks scope "+scope))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
