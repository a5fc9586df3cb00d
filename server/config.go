package server

import (
	"cmp"
	"fmt"

	"github.com/kbukum/scribe/auth"
	"github.com/kbukum/scribe/server/middleware"
	"github.com/kbukum/scribe/util"
	"github.com/kbukum/scribe/validation"
)

// Config is the server section of config.yml. Timeouts are in seconds.
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`
	// MaxBodySize caps uploads, e.g. "512MB".
	MaxBodySize string `yaml:"max_body_size" mapstructure:"max_body_size"`
	// RateLimit is API requests per minute per client; 0 disables it.
	RateLimit int                   `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
	CORS      middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	Auth      auth.Config           `yaml:"auth" mapstructure:"auth"`
}

// ApplyDefaults fills unset fields. The write timeout covers a whole
// synchronous transcript request.
func (c *Config) ApplyDefaults() {
	c.Port = cmp.Or(c.Port, 8080)
	c.ReadTimeout = cmp.Or(c.ReadTimeout, 60)
	c.WriteTimeout = cmp.Or(c.WriteTimeout, 1800)
	c.IdleTimeout = cmp.Or(c.IdleTimeout, 120)
	c.MaxBodySize = cmp.Or(c.MaxBodySize, "512MB")
	c.CORS.MaxAge = cmp.Or(c.CORS.MaxAge, 600)
	for _, d := range []struct {
		field *[]string
		value []string
	}{
		{&c.CORS.AllowedOrigins, []string{"*"}},
		{&c.CORS.AllowedMethods, []string{"GET", "POST", "OPTIONS"}},
		{&c.CORS.AllowedHeaders, []string{"Origin", "Content-Type", "Accept", "Authorization"}},
		{&c.CORS.ExposedHeaders, []string{middleware.RequestIDHeader}},
	} {
		if len(*d.field) == 0 {
			*d.field = d.value
		}
	}
	c.Auth.ApplyDefaults()
}

// Validate checks the tagged ranges, the body size and the auth section.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if n, err := util.ParseSize(c.MaxBodySize); err != nil || n == 0 {
		return fmt.Errorf("max_body_size %q is not a size", c.MaxBodySize)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}
