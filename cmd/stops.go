package cmd

import (
	"fmt"

	"emtbot/pkg/emt"
	"emtbot/pkg/tui"

	"github.com/spf13/cobra"
)

var stopsCmd = &cobra.Command{
	Use:   "stops",
	Short: "List the EMT stops around a location",
	Long:  "Prints the stops within the configured radius of --lat/--lon, with the lines serving each one and the keyboard the bot would offer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")

		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return fmt.Errorf("must specify a location using --lat and --lon (e.g., --lat 40.4168 --lon -3.7038)")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return fmt.Errorf("coordinates out of range: %v, %v", lat, lon)
		}

		client, err := cliClient()
		if err != nil {
			return err
		}
		return tui.ShowStops(cmd.Context(), client, emt.Location{Latitude: lat, Longitude: lon})
	},
}

func init() {
	rootCmd.AddCommand(stopsCmd)
	stopsCmd.Flags().Float64("lat", 0, "Latitude in decimal degrees")
	stopsCmd.Flags().Float64("lon", 0, "Longitude in decimal degrees")
}
