package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/geoimg/pkg/record"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Read an image directly from the configured store",
	Long: `Look up an image by id, bypassing the HTTP API. With --output the
image bytes are written to a file.

Examples:
  geoimg get 64f1c2e8a1b2c3d4e5f60718
  geoimg get 64f1c2e8a1b2c3d4e5f60718 -o photo.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		id, err := record.ParseID(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}

		cmd.Printf("ID: %s\n", id)
		cmd.Printf("Latitude: %v\n", rec.Latitude)
		cmd.Printf("Longitude: %v\n", rec.Longitude)
		cmd.Printf("Size: %d bytes\n", len(rec.ImageData))
		if !rec.CreatedAt.IsZero() {
			cmd.Printf("Created: %s\n", rec.CreatedAt.Format(time.RFC3339))
		}

		if output != "" {
			if err := os.WriteFile(output, rec.ImageData, 0644); err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}
			cmd.Printf("Image written to %s\n", output)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringP("output", "o", "", "Write the image bytes to this file")
}
