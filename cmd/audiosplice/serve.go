package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maauso/audiosplice-api/internal/bootstrap"
	"github.com/maauso/audiosplice-api/internal/config"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Run the HTTP API. Settings come from the environment and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger := cfg.NewLogger()
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting audio splice API",
				slog.String("version", version),
				slog.Int("port", cfg.Port),
				slog.Bool("s3_enabled", cfg.S3Enabled()),
			)
			return bootstrap.RunServer(ctx, cfg, logger, version)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides PORT")
	return cmd
}
