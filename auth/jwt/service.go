// Package jwt signs and verifies HMAC bearer tokens for any claims type that
// embeds jwt.RegisteredClaims.
//
//	svc, err := jwt.NewService(&cfg, func() *auth.Claims { return &auth.Claims{} })
//	token, err := svc.Sign(&auth.Claims{Scopes: []string{"transcribe"}}, 0)
//	claims, err := svc.Verify(token)
package jwt

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Stamper is implemented by claims that fill their own registered time
// claims before signing.
type Stamper interface {
	SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string)
}

// Service signs and verifies tokens carrying claims of type T.
type Service[T gojwt.Claims] struct {
	cfg    Config
	alg    gojwt.SigningMethod
	empty  func() T
	now    func() time.Time
	parser *gojwt.Parser
}

// NewService validates cfg and returns a Service. empty returns the value
// Verify decodes into.
func NewService[T gojwt.Claims](cfg *Config, empty func() T) (*Service[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	s := &Service[T]{cfg: *cfg, alg: cfg.signingMethod(), empty: empty, now: time.Now}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.alg.Alg()}),
		gojwt.WithTimeFunc(func() time.Time { return s.now() }),
		gojwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audience) > 0 {
		opts = append(opts, gojwt.WithAudience(cfg.Audience[0]))
	}
	s.parser = gojwt.NewParser(opts...)
	return s, nil
}

// Sign stamps claims that implement Stamper with ttl, or with the configured
// access token TTL when ttl is zero, and returns the signed token.
func (s *Service[T]) Sign(claims T, ttl time.Duration) (string, error) {
	if st, ok := any(claims).(Stamper); ok {
		if ttl == 0 {
			ttl = s.cfg.AccessTokenTTL
		}
		st.SetDefaults(s.now(), ttl, s.cfg.Issuer, s.cfg.Audience)
	}
	token, err := gojwt.NewWithClaims(s.alg, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return token, nil
}

// Verify checks the signature, algorithm, time claims, issuer and audience
// of token and returns its claims.
func (s *Service[T]) Verify(token string) (T, error) {
	claims := s.empty()
	if _, err := s.parser.ParseWithClaims(token, claims, s.key); err != nil {
		var zero T
		return zero, fmt.Errorf("jwt: %w", err)
	}
	return claims, nil
}

func (s *Service[T]) key(*gojwt.Token) (any, error) {
	return []byte(s.cfg.Secret), nil
}
