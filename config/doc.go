// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment.
//
// The resolver looks for ./cmd/<service>/config.yml first, then ./config,
// the working directory and finally the user config dir
// (~/.config/<service>/config.yml on Linux). Environment variables override
// file values. Each mapstructure key of the target struct is bound to its
// UPPER_SNAKE name, with or without the SCRIBE_ prefix, so
// DIARIZATION_AUTH_TOKEN fills diarization.auth_token.
//
// # Usage
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Batch BatchConfig    `yaml:"batch" mapstructure:"batch"`
//	}
//
//	var cfg Config
//	if err := config.LoadConfig("scribe", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
package config
