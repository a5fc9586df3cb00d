package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/app"
	"github.com/kbukum/scribe/bootstrap"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}

			b, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			s, err := app.New(cmd.Context(), cfg, b.Logger)
			if err != nil {
				return err
			}
			for _, c := range s.Components() {
				if err := b.RegisterComponent(c); err != nil {
					return err
				}
			}

			srv, err := s.NewServer(b.Components.HealthAll)
			if err != nil {
				return err
			}
			if err := b.RegisterComponent(server.NewComponent(srv)); err != nil {
				return err
			}
			b.OnReady(func(context.Context) error {
				b.Logger.Info("accepting uploads", logger.Fields(
					"prefix", app.APIPrefix,
					"port", cfg.Server.Port,
					"auth", cfg.Server.Auth.Enabled(),
				))
				return nil
			})
			b.OnStop(func(context.Context) error {
				if n := s.History.Len(); n > 0 {
					b.Logger.Info("dropping in-memory history", logger.Fields("batches", n))
				}
				return nil
			})
			return b.Run(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	return cmd
}
