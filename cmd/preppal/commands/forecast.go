package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/forecast"
	"github.com/preppal/backend/internal/history"
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Generate a 7-day forecast from the command line",
	Long: `Generates a one-off 7-day demand forecast for a single item.

Weather defaults to Clear for all days and no holidays; use the flags
to override day one.

Example:
  go run ./cmd/preppal forecast --item "Croissant" --business Cafe --price 3.50 --shelf-life 24
  go run ./cmd/preppal forecast --item "Jollof Rice" --business Restaurant --price 12 --shelf-life 6 --start 2026-09-01`,
	RunE: runForecast,
}

var (
	forecastItem      string
	forecastBusiness  string
	forecastPrice     float64
	forecastShelfLife float64
	forecastStart     string
	forecastWeather   string
	forecastHoliday   bool
)

func init() {
	rootCmd.AddCommand(forecastCmd)

	// Flags
	forecastCmd.Flags().StringVar(&forecastItem, "item", "", "item name")
	forecastCmd.Flags().StringVar(&forecastBusiness, "business", "", "business type (Restaurant|Cafe|Bakery)")
	forecastCmd.Flags().Float64Var(&forecastPrice, "price", 0, "item price")
	forecastCmd.Flags().Float64Var(&forecastShelfLife, "shelf-life", 0, "shelf life in hours")
	forecastCmd.Flags().StringVar(&forecastStart, "start", "", "starting date YYYY-MM-DD (default tomorrow)")
	forecastCmd.Flags().StringVar(&forecastWeather, "weather", "Clear", "day-one weather (Clear|Rainy)")
	forecastCmd.Flags().BoolVar(&forecastHoliday, "holiday", false, "day one is a holiday")
	_ = forecastCmd.MarkFlagRequired("item")
	_ = forecastCmd.MarkFlagRequired("business")
	_ = forecastCmd.MarkFlagRequired("price")
	_ = forecastCmd.MarkFlagRequired("shelf-life")
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.store.LoadFromDisk(); err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	start := time.Now().AddDate(0, 0, 1)
	if forecastStart != "" {
		start, err = time.Parse("2006-01-02", forecastStart)
		if err != nil {
			return fmt.Errorf("invalid --start date: %w", err)
		}
	}

	weather := make([]contracts.Weather, contracts.HorizonDays)
	flags := make([]int, contracts.HorizonDays)
	for i := range weather {
		weather[i] = contracts.WeatherClear
	}
	weather[0] = contracts.Weather(forecastWeather)
	if forecastHoliday {
		flags[0] = 1
	}

	fc := contracts.ForecastContext{
		BusinessType:    contracts.BusinessType(forecastBusiness),
		Price:           forecastPrice,
		ShelfLifeHours:  forecastShelfLife,
		StartingDate:    start,
		WeatherSequence: weather,
		HolidayFlags:    flags,
	}

	window, err := rt.hist.Window(ctx, forecastItem, fc.BusinessType, history.DefaultWindowDays)
	if err != nil {
		return fmt.Errorf("load history window: %w", err)
	}

	gen := forecast.NewGenerator(rt.store, rt.log.Zerolog())
	result, err := gen.PredictWeek(ctx, forecastItem, fc, window)
	if err != nil {
		return err
	}

	fmt.Printf("\n7-day forecast: %s (%s)\n", result.ItemName, result.BusinessType)
	fmt.Printf("Model version: %s\n\n", result.ModelVersion)
	fmt.Printf("%-12s %8s %12s %12s  %s\n", "Date", "Demand", "Recommended", "Confidence", "Explanation")
	for _, day := range result.Days {
		fmt.Printf("%-12s %8d %12d %5s (%.2f)  %s\n",
			day.Date.Format("2006-01-02"),
			day.PredictedDemand,
			day.RecommendedQuantity,
			day.Confidence,
			day.ConfidenceScore,
			day.Explanation,
		)
	}
	if len(result.Days) > 0 && result.Days[0].IsNewItem {
		fmt.Println("\nℹ️  New item: traits inferred from price and shelf life")
	}
	return nil
}
