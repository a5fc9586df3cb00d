package main

import (
	"cmp"
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/batch"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/render"
	"github.com/kbukum/scribe/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		flags    outputFlags
		settle   time.Duration
		existing bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Transcribe audio files as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			dir := args[0]
			flags.output = cmp.Or(flags.output, dir)
			b, s, err := newTaskApp(cmd, &flags)
			if err != nil {
				return err
			}

			out := newResultWriter(format, flags.output, os.Stdout, os.Stderr, flags.renderOptions()...)
			submit := func(ctx context.Context, paths []string) {
				inputs := make([]job.Input, len(paths))
				for i, p := range paths {
					inputs[i] = job.FileInput(p)
				}
				results := s.Batches.Run(ctx, inputs, batch.Source(sourceWatch))
				if _, err := out.write(results); err != nil {
					b.Logger.Error("Failed to write transcripts", logger.Fields("error", err.Error()))
				}
			}
			w := watch.New(watch.Config{Settle: settle, Existing: existing}, submit, watch.WithLogger(b.Logger))

			return b.RunTask(cmd.Context(), func(ctx context.Context) error {
				return w.Run(ctx, dir)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&settle, "settle", 2*time.Second, "quiet period before a new file is picked up")
	cmd.Flags().BoolVar(&existing, "existing", false, "also transcribe files already in the directory")
	return cmd
}
