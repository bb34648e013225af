package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/preppal/backend/internal/monitor"
)

// accuracyCmd represents the accuracy command
var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Show recent model accuracy",
	Long: `Summarizes the most recent accuracy ledger entries.

Example:
  go run ./cmd/preppal accuracy
  go run ./cmd/preppal accuracy --window 14`,
	RunE: runAccuracy,
}

var accuracyWindow int

func init() {
	rootCmd.AddCommand(accuracyCmd)

	// Flags
	accuracyCmd.Flags().IntVar(&accuracyWindow, "window", 7, "number of recent evaluations")
}

func runAccuracy(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	mon := monitor.New(rt.ledger, rt.cfg.Monitoring.DriftMAPE, rt.log.Zerolog())
	perf, err := mon.RecentPerformance(ctx, accuracyWindow)
	if err != nil {
		return fmt.Errorf("recent performance: %w", err)
	}
	if perf == nil {
		fmt.Println("No accuracy records yet. They are appended after observed daily sales are logged.")
		return nil
	}

	fmt.Printf("Last %d evaluations\n", perf.Window)
	fmt.Printf("  Avg MAPE: %.2f%%\n", perf.AvgMAPE)
	fmt.Printf("  Avg MAE:  %.2f\n", perf.AvgMAE)
	fmt.Printf("  Avg R2:   %.3f\n", perf.AvgR2)

	if perf.AvgMAPE > rt.cfg.Monitoring.DriftMAPE {
		fmt.Println("\n⚠️  Model accuracy degraded - consider retraining.")
	}

	needed, err := mon.NeedsRetraining(ctx, rt.cfg.Monitoring.RetrainMAPE, rt.cfg.Monitoring.RetrainWindow)
	if err != nil {
		return err
	}
	if needed {
		fmt.Println("⚠️  Retraining threshold exceeded.")
	}
	return nil
}
