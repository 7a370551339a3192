package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/pitviper/backend/pkg/logger"
)

// runCmd runs the pipeline once
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily advice pipeline once",
	Long: `Collects all asset classes, scores them, reconciles against holdings,
gathers sentiment and generates the advice packet.

The packet is written to --output, or printed to stdout when no output
path is given. Artifacts are stored under PIT_VIPER_DATA_DIR.

Example:
  go run ./cmd/pitviper run
  go run ./cmd/pitviper run --output advice.json`,
	RunE: runPipeline,
}

var outputPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the packet JSON to this file")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	packet, err := a.orch.Run(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(packet, "", "  ")
	if err != nil {
		return fmt.Errorf("encode packet: %w", err)
	}

	if outputPath == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(outputPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	log.WithField("path", outputPath).Info("Advice packet written")
	return nil
}
