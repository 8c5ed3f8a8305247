package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oddsarb/engine/internal/app"
	"github.com/oddsarb/engine/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage engine",
	Long: `Starts the arbitrage engine, which will:
1. Authorize and watch every configured bookmaker account
2. Match offers for the same event across bookmakers into the match table
3. Resolve profitable combinations (combined payout under 1.0 margin)
4. Place the stake simultaneously across every leg of the combination

Use --single-host to track only one configured account, for debugging.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("single-host", "s", "", "Track only a single configured account by host (for debugging)")
}

func runBot(cmd *cobra.Command, args []string) error {
	// Load .env, if present, ahead of reading the environment proper.
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	singleHost, _ := cmd.Flags().GetString("single-host")

	// Create app with options
	opts := &app.Options{
		SingleHost: singleHost,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
