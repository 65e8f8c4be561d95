package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/geoimg/pkg/client"
	"github.com/tidwall/pretty"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <id>",
	Short: "Fetch an image from a running GeoImg server",
	Long: `Fetch an image by id through the REST API. Without --output the JSON
response is pretty printed; with it the decoded image is written to a file.

Examples:
  geoimg fetch 64f1c2e8a1b2c3d4e5f60718
  geoimg fetch 64f1c2e8a1b2c3d4e5f60718 -o photo.png --server http://geoimg:4000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		output, _ := cmd.Flags().GetString("output")

		c := client.New(server, nil)

		if output == "" {
			raw, err := c.FetchRaw(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s", pretty.Pretty(raw))
			return nil
		}

		img, err := c.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, img.Data, 0644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
		cmd.Printf("Latitude: %v\n", img.Latitude)
		cmd.Printf("Longitude: %v\n", img.Longitude)
		cmd.Printf("Image written to %s (%d bytes)\n", output, len(img.Data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("server", "http://localhost:4000", "GeoImg server URL")
	fetchCmd.Flags().StringP("output", "o", "", "Write the decoded image to this file")
}
