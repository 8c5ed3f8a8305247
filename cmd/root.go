package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Fixed-odds arbitrage engine",
	Long: `Watches a configured set of bookmaker accounts for fixed-odds sports
markets, matches the same real-world event across bookmakers, and places
simultaneous bets across outcomes whenever the combined payout guarantees a
profit regardless of result.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
