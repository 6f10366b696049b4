package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/container"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background sweepers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("Starting merchant onboarding service",
				zap.String("driver", cfg.Database.Driver),
				zap.Int("port", cfg.Server.Port))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
			if err != nil {
				return err
			}
			if err := c.Start(ctx); err != nil {
				c.Close()
				return fmt.Errorf("failed to start container: %w", err)
			}

			serveErr := c.HTTPServer().Start(ctx)
			if serveErr != nil {
				logger.Error("HTTP server stopped", zap.Error(serveErr))
			}

			logger.Info("Shutting down")
			if err := c.Close(); err != nil {
				return err
			}
			return serveErr
		},
	}
}
