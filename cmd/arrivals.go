package cmd

import (
	"fmt"

	"emtbot/pkg/emt"
	"emtbot/pkg/tui"

	"github.com/spf13/cobra"
)

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals <stopId>",
	Short: "Show the buses arriving at an EMT stop",
	Long:  "Prints the minutes left for every bus heading to the stop. With --location also prints where the stop is.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stopID := args[0]
		if !emt.ValidStopID(stopID) {
			return fmt.Errorf("invalid stop id %q: expected 1 to 5 digits", stopID)
		}
		withLocation, _ := cmd.Flags().GetBool("location")

		client, err := cliClient()
		if err != nil {
			return err
		}
		return tui.ShowArrivals(cmd.Context(), client, stopID, withLocation)
	},
}

func init() {
	rootCmd.AddCommand(arrivalsCmd)
	arrivalsCmd.Flags().BoolP("location", "l", false, "Also print the stop coordinates")
}
