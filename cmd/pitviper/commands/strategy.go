package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/pitviper/backend/internal/strategyconfig"
)

// strategyCmd validates and prints the strategy file
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Validate and show the strategy file",
	Long: `Loads --strategy (or STRATEGY_CONFIG, or the built-in strategy), prints
the effective configuration with defaults applied, its hash and any warnings.
Exits non-zero when the file does not validate.

Example:
  go run ./cmd/pitviper strategy --strategy strategy.yaml`,
	RunE: showStrategy,
}

func init() {
	rootCmd.AddCommand(strategyCmd)
}

func showStrategy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	strategy, _, err := strategyconfig.Load(cfg.Pipeline.StrategyFile)
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(strategy); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n# hash: %s\n", hash)
	for _, w := range strategyconfig.Warn(strategy) {
		fmt.Fprintf(out, "# warning [%s]: %s\n", w.Code, w.Message)
	}
	return nil
}
