package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	admin, err := openAdmin(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer admin.Close()

	logger.Info("starting admin",
		zap.String("addr", cfg.Server.Addr),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("driver", cfg.Database.Driver),
		zap.Strings("models", admin.Registry().Models()),
	)
	return admin.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}
