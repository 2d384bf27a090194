package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "driveloop",
	Short: "driveloop hosts a cooperative tick-driven scheduler and drives " +
		"it from a wall-clock loop.",
	Long: `driveloop hosts a cooperative tick-driven scheduler and drives ` +
		`it from a wall-clock loop. It is a reference host: it registers a ` +
		`few timers, events, and dispatch labels, and can expose the ` +
		`running scheduler through a monitoring server and a SQLite drive ` +
		`trace.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
