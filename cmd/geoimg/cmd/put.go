package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/geoimg/pkg/record"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Store an image directly in the configured store",
	Long: `Store an image file with its coordinates, bypassing the HTTP API.

Example:
  geoimg put photo.png --lat 43.4643 --lon=-80.5204`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
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

		id, err := store.Insert(cmd.Context(), &record.Record{
			ImageData: data,
			Latitude:  lat,
			Longitude: lon,
		})
		if err != nil {
			return fmt.Errorf("failed to store image: %w", err)
		}

		cmd.Printf("%s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().Float64("lat", 0, "Latitude the image was taken at")
	putCmd.Flags().Float64("lon", 0, "Longitude the image was taken at")
	if err := putCmd.MarkFlagRequired("lat"); err != nil {
		panic(err)
	}
	if err := putCmd.MarkFlagRequired("lon"); err != nil {
		panic(err)
	}
}
