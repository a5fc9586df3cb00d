package auth

import (
	"fmt"
	"strings"

	"github.com/kbukum/scribe/auth/jwt"
)

// Config holds API authentication configuration.
// Authentication is active only when a JWT secret is configured.
type Config struct {
	// JWT configures bearer token verification.
	JWT jwt.Config `mapstructure:",squash" yaml:",inline"`

	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string `mapstructure:"skip_paths" yaml:"skip_paths"`
}

// Enabled reports whether bearer-token authentication is configured.
func (c *Config) Enabled() bool {
	return c.JWT.Secret != ""
}

// ApplyDefaults sets defaults for the token service and public paths.
func (c *Config) ApplyDefaults() {
	if !c.Enabled() {
		return
	}
	c.JWT.ApplyDefaults()
	if c.SkipPaths == nil {
		c.SkipPaths = []string{"/health", "/info", "/metrics", "/version"}
	}
}

// Validate checks the token configuration when authentication is enabled.
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
func (c *Config) Describe() string {
	if !c.Enabled() {
		return "disabled"
	}
	line := fmt.Sprintf("JWT(%s) TTL=%s", c.JWT.Method, c.JWT.AccessTokenTTL)
	if len(c.SkipPaths) > 0 {
		line += " public=" + strings.Join(c.SkipPaths, ",")
	}
	return line
}
