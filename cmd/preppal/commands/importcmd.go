package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/preppal/backend/internal/retrain"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import sales CSVs into the history store",
	Long: `Loads sales CSVs into the history store without training.

Useful for seeding a fresh database from exported records.

Example:
  go run ./cmd/preppal import data/restaurant_sales.csv data/cafe_bakery_sales.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	total := 0
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		records, err := retrain.ParseCSV(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if err := retrain.ValidateUpload(records); err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
		if err := rt.hist.Append(ctx, records); err != nil {
			return fmt.Errorf("store %s: %w", path, err)
		}
		fmt.Printf("✅ %s: %d rows imported\n", path, len(records))
		total += len(records)
	}

	fmt.Printf("\nImported %d rows total\n", total)
	return nil
}
