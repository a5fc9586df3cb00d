package auth

import (
	"slices"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/scribe/auth/jwt"
)

// Scopes carried by API tokens.
const (
	ScopeTranscribe = "transcribe"
	ScopeHistory    = "history"
)

// TokenValidator turns a bearer token into verified claims. The HTTP
// middleware depends on this rather than on the JWT service.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// TokenValidatorFunc adapts a function to TokenValidator.
type TokenValidatorFunc func(token string) (*Claims, error)

func (f TokenValidatorFunc) ValidateToken(token string) (*Claims, error) {
	return f(token)
}

// NewValidator validates tokens with svc.
func NewValidator(svc *jwt.Service[*Claims]) TokenValidator {
	return TokenValidatorFunc(svc.Verify)
}

// Claims are the claims carried by scribe API tokens.
type Claims struct {
	gojwt.RegisteredClaims
	Scopes []string `json:"scopes,omitempty"`
}

// SetDefaults fills the registered time claims before signing.
func (c *Claims) SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string) {
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil && ttl > 0 {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if len(c.Audience) == 0 && len(audience) > 0 {
		c.Audience = audience
	}
}

// HasScope reports whether the token grants scope. A token without scopes
// grants every scope.
func (c *Claims) HasScope(scope string) bool {
	return len(c.Scopes) == 0 || slices.Contains(c.Scopes, scope)
}

// NewService builds the JWT service for scribe claims.
func NewService(cfg *Config) (*jwt.Service[*Claims], error) {
	return jwt.NewService(&cfg.JWT, func() *Claims { return &Claims{} })
}

// Issue signs a token for subject with the given scopes and lifetime.
// A zero ttl uses the configured access token TTL.
func Issue(svc *jwt.Service[*Claims], subject string, ttl time.Duration, scopes ...string) (string, error) {
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: subject},
		Scopes:           scopes,
	}
	return svc.Sign(claims, max(ttl, 0))
}
