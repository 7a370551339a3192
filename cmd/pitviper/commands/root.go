package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/pitviper/backend/pkg/config"
)

var (
	// Global flags
	strategyFile string
	holdingsCSV  string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pitviper",
	Short: "Pit Viper - daily multi-asset advice pipeline",
	Long: `Pit Viper Unified CLI

Collects crypto, equity, fund, bond and commodity quotes, scores them,
reconciles the top picks against current holdings and writes a daily
advice packet.

Usage:
  go run ./cmd/pitviper [command]

Examples:
  go run ./cmd/pitviper run --output advice.json
  go run ./cmd/pitviper scheduler start
  go run ./cmd/pitviper api
  go run ./cmd/pitviper holdings --csv`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default: STRATEGY_CONFIG or built-in)")
	rootCmd.PersistentFlags().StringVar(&holdingsCSV, "holdings", "", "holdings CSV (default: PIT_VIPER_HOLDINGS_CSV or mock)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if strategyFile != "" {
		cfg.Pipeline.StrategyFile = strategyFile
	}
	if holdingsCSV != "" {
		cfg.Pipeline.HoldingsCSV = holdingsCSV
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
