package forecast

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/features"
	"github.com/preppal/backend/internal/model"
)

// deployFitted installs a model trained on a simple demand pattern so
// generator tests run against a realistic regressor.
func deployFitted(t *testing.T, store *model.Store) {
	t.Helper()

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	records := make([]contracts.SalesRecord, 0, 60)
	for i := 0; i < 60; i++ {
		date := start.AddDate(0, 0, i)
		demand := 40 + float64(int(date.Weekday()))*3
		records = append(records, contracts.SalesRecord{
			Date:              date,
			ItemName:          "Croissant",
			BusinessType:      contracts.BusinessCafe,
			Price:             45,
			ShelfLifeHours:    24,
			QuantityAvailable: demand + 5,
			QuantitySold:      demand - 1,
			CustomerDemand:    demand,
			WasteQuantity:     6,
			Weather:           contracts.WeatherClear,
		})
	}

	enc := features.NewEncoders()
	ts, err := features.NewDeriver(enc).BuildTrainingSet(records)
	require.NoError(t, err)

	x := make([][]float64, len(ts.Vectors))
	for i, v := range ts.Vectors {
		x[i] = v.Slice()
	}
	reg, err := model.TrainCandidate(x, ts.Labels)
	require.NoError(t, err)

	artifact, err := model.NewArtifact(reg, enc, 8.0)
	require.NoError(t, err)
	require.NoError(t, store.Deploy(artifact))
}

func weekContext(start time.Time) contracts.ForecastContext {
	weather := make([]contracts.Weather, contracts.HorizonDays)
	for i := range weather {
		weather[i] = contracts.WeatherClear
	}
	return contracts.ForecastContext{
		BusinessType:    contracts.BusinessCafe,
		Price:           45,
		ShelfLifeHours:  24,
		StartingDate:    start,
		WeatherSequence: weather,
		HolidayFlags:    make([]int, contracts.HorizonDays),
	}
}

func historyWindow(end time.Time, days int) []contracts.SalesRecord {
	out := make([]contracts.SalesRecord, 0, days)
	for i := days; i > 0; i-- {
		date := end.AddDate(0, 0, -i)
		demand := 40 + float64(int(date.Weekday()))*3
		out = append(out, contracts.SalesRecord{
			Date:           date,
			ItemName:       "Croissant",
			BusinessType:   contracts.BusinessCafe,
			Price:          45,
			ShelfLifeHours: 24,
			QuantitySold:   demand - 1,
			CustomerDemand: demand,
			Weather:        contracts.WeatherClear,
		})
	}
	return out
}

func TestPredictWeek(t *testing.T) {
	store := model.NewStore(filepath.Join(t.TempDir(), "model.json"), zerolog.Nop())
	deployFitted(t, store)
	gen := NewGenerator(store, zerolog.Nop())

	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	fc := weekContext(start)
	window := historyWindow(start, 30)

	week, err := gen.PredictWeek(context.Background(), "Croissant", fc, window)
	require.NoError(t, err)

	assert.Equal(t, "Croissant", week.ItemName)
	assert.Equal(t, contracts.BusinessCafe, week.BusinessType)
	assert.NotEmpty(t, week.ModelVersion)
	require.Len(t, week.Days, contracts.HorizonDays)

	for i, day := range week.Days {
		assert.Equal(t, i, day.DayIndex)
		assert.Equal(t, start.AddDate(0, 0, i), day.Date, "dates are consecutive from the start")
		assert.GreaterOrEqual(t, day.PredictedDemand, 0)
		assert.GreaterOrEqual(t, day.RecommendedQuantity, day.PredictedDemand,
			"buffered recommendation never undercuts the prediction")
		assert.False(t, day.IsNewItem, "Croissant is a curated item")
		assert.NotEmpty(t, day.Explanation)
		if i > 0 {
			assert.LessOrEqual(t, day.ConfidenceScore, week.Days[i-1].ConfidenceScore)
		}
	}

	// A trained model tracking demand around 40-58 should predict in a
	// plausible band for day 0.
	assert.Greater(t, week.Days[0].PredictedDemand, 10)
	assert.Less(t, week.Days[0].PredictedDemand, 150)
}

// contraryDemand gives restaurants a weekend surge and cafes a weekend dip.
func contraryDemand(bt contracts.BusinessType, date time.Time) float64 {
	wd := date.Weekday()
	weekend := wd == time.Saturday || wd == time.Sunday
	if bt == contracts.BusinessRestaurant {
		if weekend {
			return 80
		}
		return 50
	}
	if weekend {
		return 35
	}
	return 60
}

func contraryRecords(bt contracts.BusinessType, start time.Time, days int) []contracts.SalesRecord {
	out := make([]contracts.SalesRecord, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		demand := contraryDemand(bt, date)
		out = append(out, contracts.SalesRecord{
			Date:              date,
			ItemName:          "Croissant",
			BusinessType:      bt,
			Price:             45,
			ShelfLifeHours:    24,
			QuantityAvailable: demand + 5,
			QuantitySold:      demand - 1,
			CustomerDemand:    demand,
			WasteQuantity:     6,
			Weather:           contracts.WeatherClear,
		})
	}
	return out
}

func TestPredictWeek_BusinessWeekendDirections(t *testing.T) {
	// One deployed model must carry opposite weekend effects for the
	// two business types at once: restaurant Saturday above Wednesday,
	// cafe Wednesday above Saturday.
	trainStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	records := append(
		contraryRecords(contracts.BusinessRestaurant, trainStart, 119),
		contraryRecords(contracts.BusinessCafe, trainStart, 119)...,
	)

	enc := features.NewEncoders()
	ts, err := features.NewDeriver(enc).BuildTrainingSet(records)
	require.NoError(t, err)
	x := make([][]float64, len(ts.Vectors))
	for i, v := range ts.Vectors {
		x[i] = v.Slice()
	}
	reg, err := model.TrainCandidate(x, ts.Labels)
	require.NoError(t, err)
	artifact, err := model.NewArtifact(reg, enc, 8.0)
	require.NoError(t, err)

	store := model.NewStore(filepath.Join(t.TempDir(), "model.json"), zerolog.Nop())
	require.NoError(t, store.Deploy(artifact))
	gen := NewGenerator(store, zerolog.Nop())

	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC) // Monday
	forecastFor := func(bt contracts.BusinessType) *contracts.WeekForecast {
		fc := weekContext(start)
		fc.BusinessType = bt
		window := contraryRecords(bt, start.AddDate(0, 0, -30), 30)
		week, err := gen.PredictWeek(context.Background(), "Croissant", fc, window)
		require.NoError(t, err)
		return week
	}

	rest := forecastFor(contracts.BusinessRestaurant)
	cafe := forecastFor(contracts.BusinessCafe)

	// Day 2 is Wednesday, day 5 is Saturday.
	assert.Greater(t, rest.Days[5].PredictedDemand, rest.Days[2].PredictedDemand,
		"restaurant demand rises into the weekend")
	assert.Greater(t, cafe.Days[2].PredictedDemand, cafe.Days[5].PredictedDemand,
		"cafe demand falls into the weekend")
}

func TestPredictWeek_NewItemFlag(t *testing.T) {
	store := model.NewStore(filepath.Join(t.TempDir(), "model.json"), zerolog.Nop())
	deployFitted(t, store)
	gen := NewGenerator(store, zerolog.Nop())

	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	week, err := gen.PredictWeek(context.Background(), "Dragonfruit Tart", weekContext(start), nil)
	require.NoError(t, err)

	for _, day := range week.Days {
		assert.True(t, day.IsNewItem)
	}
}

func TestPredictWeek_ModelUnavailable(t *testing.T) {
	store := model.NewStore(filepath.Join(t.TempDir(), "model.json"), zerolog.Nop())
	gen := NewGenerator(store, zerolog.Nop())

	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	_, err := gen.PredictWeek(context.Background(), "Croissant", weekContext(start), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrModelUnavailable)
}

func TestPredictWeek_InvalidContext(t *testing.T) {
	store := model.NewStore(filepath.Join(t.TempDir(), "model.json"), zerolog.Nop())
	deployFitted(t, store)
	gen := NewGenerator(store, zerolog.Nop())

	fc := weekContext(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	fc.Price = -1

	_, err := gen.PredictWeek(context.Background(), "Croissant", fc, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestPredictWeek_CancelledContext(t *testing.T) {
	store := model.NewStore(filepath.Join(t.TempDir(), "model.json"), zerolog.Nop())
	deployFitted(t, store)
	gen := NewGenerator(store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	_, err := gen.PredictWeek(ctx, "Croissant", weekContext(start), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, 0.85, ConfidenceScore(0))
	assert.Equal(t, 0.80, ConfidenceScore(1))
	assert.Equal(t, 0.60, ConfidenceScore(5))
	assert.Equal(t, 0.55, ConfidenceScore(6), "floor reached on the last day")
	assert.Equal(t, 0.55, ConfidenceScore(20), "clamped beyond the horizon")
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, contracts.ConfidenceHigh, ConfidenceLevel(0.85))
	assert.Equal(t, contracts.ConfidenceHigh, ConfidenceLevel(0.75))
	assert.Equal(t, contracts.ConfidenceMedium, ConfidenceLevel(0.70))
	assert.Equal(t, contracts.ConfidenceMedium, ConfidenceLevel(0.60))
	assert.Equal(t, contracts.ConfidenceLow, ConfidenceLevel(0.55))
}

func TestAssessWasteRisk(t *testing.T) {
	tests := []struct {
		name      string
		predicted int
		planned   int
		level     RiskLevel
		color     string
		waste     int
	}{
		{"high", 40, 60, RiskHigh, "red", 20},
		{"medium", 40, 45, RiskMedium, "yellow", 5},
		{"low", 40, 42, RiskLow, "green", 2},
		{"demand exceeds plan", 50, 40, RiskLow, "green", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessWasteRisk(tt.predicted, tt.planned)
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.color, got.Color)
			assert.Equal(t, tt.waste, got.ExpectedWaste)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestAssessWasteRisk_ZeroPlan(t *testing.T) {
	got := AssessWasteRisk(40, 0)
	assert.Equal(t, RiskLow, got.Level)
	assert.Equal(t, "No production planned.", got.Message)
	assert.Zero(t, got.WastePercentage)
	assert.Zero(t, got.ExpectedWaste)
}

func TestRecommend(t *testing.T) {
	// predicted 100 -> buffered 105.
	rec := Recommend(100, 130)
	assert.Equal(t, 105, rec.RecommendedQuantity)
	assert.Equal(t, "REDUCE by 25 units", rec.Action)

	rec = Recommend(100, 80)
	assert.Equal(t, "INCREASE by 25 units", rec.Action)

	rec = Recommend(100, 103)
	assert.Equal(t, "MAINTAIN current plan", rec.Action)
	assert.Contains(t, rec.Explanation, "105 units")
}

func TestComposeExplanation(t *testing.T) {
	saturday := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// Cafe weekends point down, other businesses up.
	s := ComposeExplanation(saturday, contracts.BusinessCafe, false, false, 40)
	assert.Contains(t, s, "weekend drop")
	s = ComposeExplanation(saturday, contracts.BusinessRestaurant, false, false, 40)
	assert.Contains(t, s, "weekend uplift")

	s = ComposeExplanation(monday, contracts.BusinessCafe, true, true, 42)
	assert.Equal(t, "Based on: holiday effect, rainy weather, 7-day avg (42)", s)

	// Four candidate factors cap at three: the rolling average is dropped.
	s = ComposeExplanation(saturday, contracts.BusinessCafe, true, true, 42)
	assert.Equal(t, "Based on: weekend drop, holiday effect, rainy weather", s)
}
