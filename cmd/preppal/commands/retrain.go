package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/retrain"
)

// retrainCmd represents the retrain command
var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Retrain the model with new sales data",
	Long: `Runs one retrain attempt from an uploaded sales CSV.

The incumbent model keeps serving while the candidate trains. The
candidate deploys only when it scores a strictly lower MAPE than the
incumbent on the shared held-out window.

Example:
  go run ./cmd/preppal retrain --data data/incoming/2026-08-sales.csv`,
	RunE: runRetrain,
}

var retrainDataPath string

func init() {
	rootCmd.AddCommand(retrainCmd)

	// Flags
	retrainCmd.Flags().StringVar(&retrainDataPath, "data", "", "uploaded sales CSV path")
	_ = retrainCmd.MarkFlagRequired("data")
}

func runRetrain(cmd *cobra.Command, args []string) error {
	fmt.Println("=== PrepPal Retraining Pipeline ===")

	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	// The gate compares against the incumbent, so a live model is required.
	if err := rt.store.LoadFromDisk(); err != nil {
		return fmt.Errorf("load incumbent model: %w", err)
	}

	f, err := os.Open(retrainDataPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", retrainDataPath, err)
	}
	records, err := retrain.ParseCSV(f)
	f.Close()
	if err != nil {
		return reportViolations(err)
	}
	fmt.Printf("Loaded %d rows\n", len(records))

	gate := retrain.NewGate(rt.store, rt.hist, rt.log.Zerolog())
	decision, err := gate.Attempt(ctx, records)
	if err != nil {
		return reportViolations(err)
	}

	fmt.Printf("\nOld MAPE: %.2f%%  New MAPE: %.2f%%  Improvement: %.2f%%\n",
		decision.OldMAPE, decision.NewMAPE, decision.Improvement)
	if decision.Deployed {
		fmt.Println("✅ New model deployed!")
	} else {
		fmt.Println("ℹ️  Existing model kept")
	}
	fmt.Printf("   Reason: %s\n", decision.Reason)
	return nil
}

func reportViolations(err error) error {
	var sv *contracts.SchemaViolationError
	if errors.As(err, &sv) {
		for _, violation := range sv.Violations {
			fmt.Printf("  ❌ %s\n", violation)
		}
	}
	return err
}
