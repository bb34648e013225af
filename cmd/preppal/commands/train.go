package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/features"
	"github.com/preppal/backend/internal/model"
	"github.com/preppal/backend/internal/retrain"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and deploy the initial model",
	Long: `Trains a model from scratch on one or more sales CSVs and deploys it.

This command:
- Audits the datasets (schema, negatives, waste identity, duplicates)
- Builds the feature matrix with fresh encoder vocabularies
- Trains ridge candidates and an inverse-MAPE weighted ensemble
- Deploys whichever scores best on the held-out window
- Stores the records as the history baseline

Example:
  go run ./cmd/preppal train --data data/restaurant_sales.csv --data data/cafe_bakery_sales.csv
  go run ./cmd/preppal train --data data/sales.csv --validate-only`,
	RunE: runTrain,
}

var (
	trainDataPaths    []string
	trainValidateOnly bool
)

func init() {
	rootCmd.AddCommand(trainCmd)

	// Flags
	trainCmd.Flags().StringArrayVar(&trainDataPaths, "data", nil, "sales CSV path (repeatable)")
	trainCmd.Flags().BoolVar(&trainValidateOnly, "validate-only", false, "audit the datasets without training")
	_ = trainCmd.MarkFlagRequired("data")
}

func runTrain(cmd *cobra.Command, args []string) error {
	fmt.Println("=== PrepPal Initial Training ===")

	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	log := rt.log

	// 1. Load and audit datasets
	var records []contracts.SalesRecord
	for _, path := range trainDataPaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		rows, err := retrain.ParseCSV(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		report := retrain.ValidateDataset(rows)
		fmt.Printf("\nDataset: %s\n", path)
		fmt.Printf("  Rows:  %d\n", report.Rows)
		fmt.Printf("  Range: %s to %s\n", report.From, report.To)
		for _, issue := range report.Issues {
			fmt.Printf("  ❌ %s\n", issue)
		}
		for _, warn := range report.Warnings {
			fmt.Printf("  ⚠️  %s\n", warn)
		}
		if !report.Valid {
			return fmt.Errorf("dataset %s failed validation with %d issue(s)", path, len(report.Issues))
		}
		fmt.Println("  ✅ All checks passed")
		records = append(records, rows...)
	}

	if trainValidateOnly {
		fmt.Println("\n✅ Validation finished (training skipped)")
		return nil
	}

	// 2. Build the feature matrix
	enc := features.NewEncoders()
	deriver := features.NewDeriver(enc)
	ts, err := deriver.BuildTrainingSet(records)
	if err != nil {
		return fmt.Errorf("build training set: %w", err)
	}

	trainX, trainY, testX, testY, err := retrain.TimeSplit(ts)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"total_rows": len(ts.Vectors),
		"train_rows": len(trainX),
		"test_rows":  len(testX),
	}).Info("Training set ready")

	// 3. Train and select
	best, testMAPE, err := model.TrainSelected(trainX, trainY, testX, testY, log.Zerolog())
	if err != nil {
		return fmt.Errorf("train model: %w", err)
	}

	// 4. Deploy
	artifact, err := model.NewArtifact(best, enc, testMAPE)
	if err != nil {
		return err
	}
	if err := rt.store.Deploy(artifact); err != nil {
		return fmt.Errorf("deploy model: %w", err)
	}

	// 5. Store the history baseline
	if err := rt.hist.Append(ctx, records); err != nil {
		return fmt.Errorf("store history baseline: %w", err)
	}

	fmt.Printf("\n✅ Model deployed\n")
	fmt.Printf("   Version:   %s\n", artifact.Version)
	fmt.Printf("   Kind:      %s\n", artifact.Kind)
	fmt.Printf("   Test MAPE: %.2f%%\n", testMAPE)
	fmt.Printf("   Artifact:  %s\n", rt.store.Path())
	return nil
}
