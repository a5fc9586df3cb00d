package main

import (
	"cmp"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/app"
	"github.com/kbukum/scribe/config"
	"github.com/kbukum/scribe/version"
)

const serviceName = "scribe"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Speaker-attributed transcription: whisper + pyannote, aligned",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default: cmd/scribe/config.yml search path)")
	root.PersistentFlags().String("env-file", "", ".env file to load before reading the environment")
	root.PersistentFlags().Bool("debug", false, "log at debug level")

	root.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newWatchCmd(),
		newProbeCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads config.yml, .env and the environment into an app.Config.
// Batch commands log to stderr so stdout carries only transcripts.
func loadConfig(cmd *cobra.Command, batchMode bool) (*app.Config, error) {
	var opts []config.LoaderOption
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if path, _ := cmd.Flags().GetString("env-file"); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}

	cfg := &app.Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.Version = cmp.Or(cfg.Version, version.Short())
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	if batchMode && cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	return cfg, nil
}
