package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pitviper/backend/internal/portfolio"
	"github.com/wonny/pitviper/backend/pkg/database"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// holdingsCmd prints the holdings the pipeline would reconcile against
var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Show the loaded holdings snapshot",
	Long: `Loads holdings from --holdings (or PIT_VIPER_HOLDINGS_CSV) and prints them.
Without a file, or when the file does not exist, the mock snapshot is shown.

With --save the snapshot is stored in Postgres for today, and later runs
without a CSV reconcile against it.

Example:
  go run ./cmd/pitviper holdings
  go run ./cmd/pitviper holdings --holdings positions.csv --csv
  go run ./cmd/pitviper holdings --holdings positions.csv --save`,
	RunE: showHoldings,
}

var (
	holdingsAsCSV bool
	holdingsSave  bool
)

func init() {
	rootCmd.AddCommand(holdingsCmd)

	holdingsCmd.Flags().BoolVar(&holdingsAsCSV, "csv", false, "print as CSV instead of JSON")
	holdingsCmd.Flags().BoolVar(&holdingsSave, "save", false, "store the snapshot in Postgres")
}

func showHoldings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	snapshot, err := portfolio.LoadHoldings(cfg.Pipeline.HoldingsCSV)
	if err != nil {
		return err
	}

	if holdingsSave {
		ctx := context.Background()
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo := portfolio.NewRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		today := time.Now().In(cfg.Location())
		if err := repo.SaveHoldings(ctx, today, snapshot.Holdings); err != nil {
			return err
		}
		log.WithFields(map[string]interface{}{
			"count": len(snapshot.Holdings),
			"date":  today.Format("2006-01-02"),
		}).Info("Holdings saved")
	}

	out := cmd.OutOrStdout()
	if holdingsAsCSV {
		return portfolio.WriteHoldings(out, snapshot.Holdings)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}
