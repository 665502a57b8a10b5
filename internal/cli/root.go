// Package cli implements the gamgui CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gamgui",
	Short: "Run GAM sessions against a gamgui server",
	Long: `Gamgui is the companion CLI for the gamgui server. It manages GAM
sessions, attaches a local terminal to them, and uploads GAM credentials.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(secretsCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(versionCmd)
}
