package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/app"
	"github.com/kbukum/scribe/batch"
	"github.com/kbukum/scribe/bootstrap"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/render"
)

// History source labels for batches started from the command line.
const (
	sourceCLI   = "cli"
	sourceWatch = "watch"
)

// outputFlags are shared by run and watch.
type outputFlags struct {
	format        string
	output        string
	concurrency   int
	chronological bool
	merge         bool
	skipEmpty     bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: text, srt, vtt, json, yaml, markdown")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write one file per input into this directory")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "jobs run in parallel (overrides batch.concurrency)")
	cmd.Flags().BoolVar(&f.chronological, "chronological", false, "sort speaker turns by start time before aligning")
	cmd.Flags().BoolVar(&f.merge, "merge", false, "merge consecutive lines of the same speaker")
	cmd.Flags().BoolVar(&f.skipEmpty, "skip-empty", false, "drop speaker turns without text")
}

func (f *outputFlags) apply(cfg *app.Config) {
	if f.concurrency > 0 {
		cfg.Batch.Concurrency = f.concurrency
	}
	if f.chronological {
		cfg.Align.Chronological = true
	}
}

func (f *outputFlags) renderOptions() []render.Option {
	var opts []render.Option
	if f.merge {
		opts = append(opts, render.MergeConsecutive())
	}
	if f.skipEmpty {
		opts = append(opts, render.SkipEmpty())
	}
	return opts
}

// newTaskApp loads config, wires the pipeline and registers its components
// for a finite command.
func newTaskApp(cmd *cobra.Command, flags *outputFlags) (*bootstrap.App[*app.Config], *app.Scribe, error) {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return nil, nil, err
	}
	flags.apply(cfg)

	b, err := bootstrap.NewApp(cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := app.New(cmd.Context(), cfg, b.Logger)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range s.Components() {
		if err := b.RegisterComponent(c); err != nil {
			return nil, nil, err
		}
	}
	return b, s, nil
}

func newRunCmd() *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Transcribe files as one batch and print or save the transcripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			b, s, err := newTaskApp(cmd, &flags)
			if err != nil {
				return err
			}

			inputs := make([]job.Input, len(args))
			for i, path := range args {
				inputs[i] = job.FileInput(path)
			}
			w := newResultWriter(format, flags.output, os.Stdout, os.Stderr, flags.renderOptions()...)

			return b.RunTask(cmd.Context(), func(ctx context.Context) error {
				results := s.Batches.Run(ctx, inputs, batch.Source(sourceCLI))
				failed, err := w.write(results)
				if err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d jobs failed", failed, len(results))
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}
