package cmd

import (
	"emtbot/pkg/tui"

	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the interactive TUI",
	Long:  `Launch the Text User Interface to look up nearby stops or bus arrivals interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient()
		if err != nil {
			return err
		}
		return tui.RunTUI(cmd.Context(), client)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
