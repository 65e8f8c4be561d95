/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/geoimg/pkg/storage"
	"github.com/ssargent/geoimg/pkg/storage/sqlstore"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQL schema of the sqlite and postgres backends",
	Long: `Apply, roll back or inspect the embedded schema migrations.

serve applies pending migrations on startup; these commands are for
operators who want to run them separately.

Examples:
  geoimg migrate up --backend sqlite
  geoimg migrate version --backend postgres
  geoimg migrate down --backend sqlite --data-dir ./data`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSQLStore(cmd, func(store *sqlstore.Store) error {
			if err := store.MigrateUp(); err != nil {
				return err
			}
			return printVersion(cmd, store)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSQLStore(cmd, func(store *sqlstore.Store) error {
			if err := store.MigrateDown(); err != nil {
				return err
			}
			cmd.Printf("All migrations rolled back\n")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSQLStore(cmd, func(store *sqlstore.Store) error {
			return printVersion(cmd, store)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func withSQLStore(cmd *cobra.Command, fn func(*sqlstore.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.OpenSQL(cmd.Context(), cfg.Store, true)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func printVersion(cmd *cobra.Command, store *sqlstore.Store) error {
	version, dirty, ok, err := store.Version()
	if err != nil {
		return err
	}
	if !ok {
		cmd.Printf("No migrations applied\n")
		return nil
	}
	cmd.Printf("Schema version: %d", version)
	if dirty {
		cmd.Printf(" (dirty)")
	}
	cmd.Printf("\n")
	return nil
}
