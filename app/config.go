package app

import (
	"cmp"
	"fmt"

	"github.com/kbukum/scribe/api"
	"github.com/kbukum/scribe/audio"
	"github.com/kbukum/scribe/batch"
	"github.com/kbukum/scribe/config"
	"github.com/kbukum/scribe/diarization/pyannote"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/provider"
	"github.com/kbukum/scribe/server"
	"github.com/kbukum/scribe/transcription/whisper"
	"github.com/kbukum/scribe/util"
	"github.com/kbukum/scribe/validation"
)

// DefaultHistoryCapacity is the number of batches kept in memory.
const DefaultHistoryCapacity = 100

// Config is the scribe process configuration, loaded from config.yml and
// the environment by config.LoadConfig.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Audio         audio.Config         `yaml:"audio" mapstructure:"audio"`
	Transcription BackendConfig        `yaml:"transcription" mapstructure:"transcription"`
	Diarization   DiarizationConfig    `yaml:"diarization" mapstructure:"diarization"`
	Job           job.Config           `yaml:"job" mapstructure:"job"`
	Batch         batch.Config         `yaml:"batch" mapstructure:"batch"`
	Align         AlignConfig          `yaml:"align" mapstructure:"align"`
	History       HistoryConfig        `yaml:"history" mapstructure:"history"`
	API           api.Config           `yaml:"api" mapstructure:"api"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// BackendConfig selects a provider by registered name and passes Options to
// its factory.
type BackendConfig struct {
	Backend    string                    `yaml:"backend" mapstructure:"backend" validate:"required"`
	Options    map[string]any            `yaml:"options" mapstructure:"options"`
	Resilience provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// DiarizationConfig adds the backend credential, which is only ever read
// from config or the DIARIZATION_AUTH_TOKEN environment variable.
type DiarizationConfig struct {
	BackendConfig `yaml:",inline" mapstructure:",squash"`
	AuthToken     string `yaml:"-" mapstructure:"auth_token"`
}

// AlignConfig controls speaker ordering.
type AlignConfig struct {
	// Chronological sorts speaker spans by start time before aligning.
	Chronological bool `yaml:"chronological" mapstructure:"chronological"`
}

// HistoryConfig bounds the in-memory batch history.
type HistoryConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gte=0"`
}

// ApplyDefaults fills unset fields across all sections.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.Transcription.Backend = cmp.Or(c.Transcription.Backend, whisper.ProviderName)
	c.Diarization.Backend = cmp.Or(c.Diarization.Backend, pyannote.ProviderName)
	c.Job.ApplyDefaults()
	c.Batch.ApplyDefaults()
	if c.History.Capacity == 0 {
		c.History.Capacity = DefaultHistoryCapacity
	}
	c.API.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags and the sections with their own rules.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// transcriptionOptions returns the factory options for the transcription
// backend, with job.language as the fallback language.
func (c *Config) transcriptionOptions() map[string]any {
	opts := cloneOptions(c.Transcription.Options)
	if _, ok := opts["language"]; !ok && c.Job.Language != "" {
		opts["language"] = c.Job.Language
	}
	return opts
}

// diarizationOptions returns the factory options for the diarization
// backend with the credential merged in.
func (c *Config) diarizationOptions() map[string]any {
	opts := cloneOptions(c.Diarization.Options)
	if token := util.Unquote(c.Diarization.AuthToken); token != "" {
		opts["auth_token"] = token
	}
	return opts
}

func cloneOptions(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
