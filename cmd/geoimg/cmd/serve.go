/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GeoImg REST API server",
	Long: `Start the GeoImg REST API server over the configured store.

Endpoints:
  POST /upload      store a base64 PNG with its coordinates
  GET  /image/{id}  retrieve a stored image
  GET  /health      liveness check
  GET  /metrics     Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  geoimg serve
  geoimg serve --port 8080 --backend sqlite --data-dir ./data
  GEOIMG_POSTGRES_DSN=postgres://... geoimg serve --backend postgres`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}
		if container == nil {
			return errors.New("dependency container not initialized")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close store", "error", err)
			}
		}()

		starter := container.GetServerFactory().CreateServerStarter()
		if err := starter.StartServer(ctx, store, serverConfig(cfg), logger); err != nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 4000, "Port to listen on")
	serveCmd.Flags().String("bind", "0.0.0.0", "Address to bind to")
}
