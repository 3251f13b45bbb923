package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hangout",
	Short: "HangOut Guide backend",
	Long: `hangout runs the HangOut Guide API: accounts, profiles with leisure
preferences, place search and the AI chat that recommends places nearby.

Examples:
  hangout               Start the API server
  hangout serve         Same as above
  hangout migrate       Apply pending database migrations and exit`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
