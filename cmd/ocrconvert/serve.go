package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wudi/ocrconvert/artifact"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload/download web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Listen = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := observability.NewSlogLogger(newLogger(cfg.Log, cmd.ErrOrStderr()))
			store := artifact.NewStore(
				artifact.WithTTL(cfg.Cache.TTL),
				artifact.WithMaxEntries(cfg.Cache.MaxEntries),
				artifact.WithLogger(logger),
			)
			srv := server.New(cfg, newPipeline(cfg, logger), store, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.listen)")
	return cmd
}
