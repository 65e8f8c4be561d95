package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/geoimg/pkg/client"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image to a running GeoImg server",
	Long: `Upload an image file with its coordinates through the REST API and
print the id the server assigned.

Example:
  geoimg upload photo.png --lat 43.4643 --lon=-80.5204 --server http://localhost:4000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		id, err := client.New(server, nil).Upload(cmd.Context(), data, lat, lon)
		if err != nil {
			return err
		}

		cmd.Printf("%s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().String("server", "http://localhost:4000", "GeoImg server URL")
	uploadCmd.Flags().Float64("lat", 0, "Latitude the image was taken at")
	uploadCmd.Flags().Float64("lon", 0, "Longitude the image was taken at")
	if err := uploadCmd.MarkFlagRequired("lat"); err != nil {
		panic(err)
	}
	if err := uploadCmd.MarkFlagRequired("lon"); err != nil {
		panic(err)
	}
}
