/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/geoimg/pkg/api"
	"github.com/ssargent/geoimg/pkg/config"
	"github.com/ssargent/geoimg/pkg/di"
	"github.com/ssargent/geoimg/pkg/logging"
	"github.com/ssargent/geoimg/pkg/record"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "geoimg",
	Short: "GeoImg - image and coordinate storage service",
	Long: `GeoImg stores PNG images together with the latitude and longitude they
were taken at, and serves them back by id over a small REST API.

Images can live in an embedded pebble store, SQLite, PostgreSQL,
DynamoDB, S3 or MinIO.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file path (default: ~/.config/geoimg/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for local stores")
	rootCmd.PersistentFlags().String("backend", "", "Store backend: pebble, sqlite, postgres, dynamodb, s3 or minio")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file when present, then applies GEOIMG_*
// environment variables and finally any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("backend") {
		cfg.Store.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("bind") {
		cfg.Bind, _ = flags.GetString("bind")
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
}

// openStore opens the configured record store through the container
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (record.Store, error) {
	if container == nil {
		return nil, errors.New("dependency container not initialized")
	}
	store, err := container.GetStoreOpener()(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	return store, nil
}

func serverConfig(cfg *config.Config) api.ServerConfig {
	return api.ServerConfig{
		Bind:            cfg.Bind,
		Port:            cfg.Port,
		CORSOrigins:     cfg.Server.CORSOrigins,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		Compression:     cfg.Server.Compression,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
}
