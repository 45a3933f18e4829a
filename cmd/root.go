package cmd

import (
	"fmt"
	"os"

	"emtbot/pkg/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "emtbot",
	Short: "A Telegram bot and CLI for EMT Madrid bus arrivals",
	Long: `emtbot answers Telegram messages with the buses arriving at an EMT Madrid stop
and the stops around a shared location. The same queries are available from the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the JSON or YAML configuration file")
}
