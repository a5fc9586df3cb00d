package logger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Output sinks.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Config is the logging section of the service config.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level"`
	// Format is json, or console (aliases pretty and text) for humans.
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
	// File is written when Output is "file" and rotated by size.
	File      string `yaml:"file" mapstructure:"file"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
	// Rotation: megabytes per file, files kept, days kept.
	MaxSize    int  `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int  `yaml:"max_age" mapstructure:"max_age"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
	LocalTime  bool `yaml:"local_time" mapstructure:"local_time"`
}

// ApplyDefaults fills unset fields. Timestamps are always on.
func (c *Config) ApplyDefaults() {
	c.Level = cmp.Or(c.Level, "info")
	c.Format = cmp.Or(c.Format, "console")
	c.Output = cmp.Or(c.Output, OutputStdout)
	if c.Output == OutputFile {
		c.File = cmp.Or(c.File, "scribe.log")
	}
	c.MaxSize = cmp.Or(c.MaxSize, 100)
	c.MaxBackups = cmp.Or(c.MaxBackups, 3)
	c.MaxAge = cmp.Or(c.MaxAge, 28)
	c.Timestamp = true
}

// Validate rejects unknown levels, formats and outputs, ignoring case.
// An empty output means stdout.
func (c *Config) Validate() error {
	for _, f := range []struct {
		key, value string
		allowed    []string
	}{
		{"level", c.Level, []string{"trace", "debug", "info", "warn", "error", "fatal"}},
		{"format", c.Format, []string{"json", "console", "pretty", "text"}},
		{"output", cmp.Or(c.Output, OutputStdout), []string{OutputStdout, OutputStderr, OutputFile}},
	} {
		if !slices.Contains(f.allowed, strings.ToLower(f.value)) {
			return fmt.Errorf("%s %q is not one of %s", f.key, f.value, strings.Join(f.allowed, ", "))
		}
	}
	return nil
}

func (c *Config) console() bool {
	return !strings.EqualFold(c.Format, "json")
}
