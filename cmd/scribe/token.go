package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		scopes  []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with server.auth.secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			cfg.ApplyDefaults()
			if !cfg.Server.Auth.Enabled() {
				return errors.New("server.auth.secret is not set")
			}
			svc, err := auth.NewService(&cfg.Server.Auth)
			if err != nil {
				return err
			}
			token, err := auth.Issue(svc, subject, ttl, scopes...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "scribe-cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: server.auth.access_token_ttl)")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "granted scopes: transcribe, history (default: all)")
	return cmd
}
