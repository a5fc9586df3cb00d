package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/scribe/logger"
)

// EnvPrefix is an optional prefix for environment overrides:
// SCRIBE_BATCH_CONCURRENCY and BATCH_CONCURRENCY both set batch.concurrency.
const EnvPrefix = "SCRIBE"

// FileSystem is the slice of the OS the loader touches, replaceable in tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// LoadEnv does not override variables already set in the environment.
func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

// LoaderConfig collects the LoadConfig options.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// UserConfigDir is searched for <service>/config.yml after the working
	// directory candidates. Empty disables the lookup.
	UserConfigDir string
}

// LoaderOption customizes LoadConfig.
type LoaderOption func(*LoaderConfig)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search and reads path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile skips the search and loads path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Resolver locates the config and .env files of a service.
type Resolver struct {
	FileSystem    FileSystem
	UserConfigDir string
}

// ResolvedFiles are the files LoadConfig reads. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths from opts and searches for the rest.
func (r *Resolver) ResolveFiles(service string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(r.configCandidates(service))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(service))
	}
	return files
}

func (r *Resolver) configCandidates(service string) []string {
	c := []string{
		"./cmd/" + service + "/config.yml",
		"../cmd/" + service + "/config.yml",
		"../../cmd/" + service + "/config.yml",
		"./config/config.yml",
		"./config.yml",
	}
	if r.UserConfigDir != "" {
		c = append(c, filepath.Join(r.UserConfigDir, service, "config.yml"))
	}
	return c
}

func envCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/.env",
		"../cmd/" + service + "/.env",
		".env." + service,
		".env",
	}
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg from the service's config.yml, then its .env file,
// then the environment, later sources winning. cfg must be a pointer to a
// struct with mapstructure tags; every leaf key is bound to its UPPER_SNAKE
// environment name with and without EnvPrefix. A missing or unreadable file
// is logged and skipped; only decoding errors fail.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: osFS{}}
	if dir, err := os.UserConfigDir(); err == nil {
		lc.UserConfigDir = dir
	}
	for _, opt := range opts {
		opt(&lc)
	}
	r := &Resolver{FileSystem: lc.FileSystem, UserConfigDir: lc.UserConfigDir}
	files := r.ResolveFiles(service, lc)

	v := viper.New()
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("config file skipped", logger.Fields("path", files.ConfigFile, logger.FieldError, err.Error()))
		}
	}
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn(".env file skipped", logger.Fields("path", files.EnvFile, logger.FieldError, err.Error()))
		}
	}
	for _, key := range Keys(cfg) {
		env := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, EnvPrefix+"_"+env, env); err != nil {
			return fmt.Errorf("config: bind %s: %w", key, err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: decode %s config: %w", service, err)
	}
	return nil
}

// Keys lists the dotted mapstructure keys of every leaf field in cfg.
// Squashed embedded structs contribute their keys at the parent level.
// Maps and slices are leaves.
func Keys(cfg any) []string {
	t := reflect.TypeOf(cfg)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	collectKeys(t, "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if strings.Contains(opts, "squash") || (f.Anonymous && name == "") {
			if ft.Kind() == reflect.Struct {
				collectKeys(ft, prefix, keys)
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := prefix + name
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			collectKeys(ft, key+".", keys)
			continue
		}
		*keys = append(*keys, key)
	}
}
