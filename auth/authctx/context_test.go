package authctx

import (
	"context"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/scribe/auth"
)

func TestClaims(t *testing.T) {
	ctx := With(context.Background(), &auth.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "ci"},
		Scopes:           []string{auth.ScopeTranscribe},
	})

	got, ok := Claims(ctx)
	if !ok || got.Subject != "ci" {
		t.Fatalf("Claims = %+v, %v", got, ok)
	}
	if s := Subject(ctx); s != "ci" {
		t.Errorf("Subject = %q", s)
	}
}

func TestAnonymous(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"empty", context.Background()},
		{"nil claims", With(context.Background(), nil)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := Claims(tc.ctx); ok {
				t.Error("expected no claims")
			}
			if s := Subject(tc.ctx); s != "" {
				t.Errorf("Subject = %q", s)
			}
		})
	}
}
