package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "preppal",
	Short: "PrepPal - demand forecasting for perishable food",
	Long: `PrepPal Unified CLI

7-day demand forecasting backend for restaurants, cafes and bakeries.
Serves forecasts, tracks model accuracy and manages retraining.

Usage:
  go run ./cmd/preppal [command]

Examples:
  go run ./cmd/preppal api
  go run ./cmd/preppal train --data data/sales.csv
  go run ./cmd/preppal forecast --item "Croissant" --business Cafe
  go run ./cmd/preppal test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
