package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names an HMAC algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// Config holds the signing key and the registered claims stamped on tokens.
// The secret is never written back to YAML.
type Config struct {
	Secret   string        `mapstructure:"secret" yaml:"-"`
	Method   SigningMethod `mapstructure:"method" yaml:"method"`
	Issuer   string        `mapstructure:"issuer" yaml:"issuer"`
	Audience []string      `mapstructure:"audience" yaml:"audience"`
	// AccessTokenTTL applies when Sign gets a zero TTL.
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl" yaml:"access_token_ttl"`
}

// ApplyDefaults selects HS256 and a 24h token lifetime.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 24 * time.Hour
	}
}

// Validate requires a secret and a known method.
func (c *Config) Validate() error {
	if _, ok := methods[c.Method]; !ok {
		return fmt.Errorf("method %q is not one of HS256, HS384, HS512", c.Method)
	}
	if c.Secret == "" {
		return errors.New("secret is required")
	}
	return nil
}

var methods = map[SigningMethod]gojwt.SigningMethod{
	HS256: gojwt.SigningMethodHS256,
	HS384: gojwt.SigningMethodHS384,
	HS512: gojwt.SigningMethodHS512,
}

func (c *Config) signingMethod() gojwt.SigningMethod { return methods[c.Method] }
