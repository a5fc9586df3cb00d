package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/audio"
)

func newProbeCmd() *cobra.Command {
	var (
		rate   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show a WAV file's format and whether it needs converting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := audio.Probe(args[0])
			if err != nil {
				return err
			}
			canonical := f.IsCanonical(rate)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					audio.Format
					Canonical bool `json:"canonical"`
				}{f, canonical})
			}
			verdict := "needs conversion"
			if canonical {
				verdict = "canonical"
			}
			_, err = fmt.Fprintf(out, "%s: %s (%s at %dHz)\n", args[0], f, verdict, rate)
			return err
		},
	}
	cmd.Flags().IntVar(&rate, "rate", audio.DefaultSampleRate, "target sample rate")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
