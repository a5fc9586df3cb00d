package config

import (
	"fmt"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/validation"
)

// Environments a ServiceConfig may name.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// ServiceConfig is the part of config.yml every scribe process reads. The
// application config embeds it with mapstructure:",squash", so these keys sit
// at the top level.
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string `yaml:"version" mapstructure:"version"`
	// Debug forces debug logging whatever logging.level says.
	Debug   bool          `yaml:"debug" mapstructure:"debug"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig lets bootstrap reach the embedded ServiceConfig of any
// application config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults names the service scribe in development. Embedding configs
// call it before their own defaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "scribe"
	}
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Debug {
		c.Logging.Level = "debug"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the tagged fields and the logging section.
func (c *ServiceConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
