package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preppal/backend/internal/contracts"
)

func clearWeek() []contracts.Weather {
	seq := make([]contracts.Weather, contracts.HorizonDays)
	for i := range seq {
		seq[i] = contracts.WeatherClear
	}
	return seq
}

func testContext() contracts.ForecastContext {
	return contracts.ForecastContext{
		BusinessType:    contracts.BusinessCafe,
		Price:           45,
		ShelfLifeHours:  24,
		StartingDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), // a Monday
		WeatherSequence: clearWeek(),
		HolidayFlags:    make([]int, contracts.HorizonDays),
	}
}

func TestPythonWeekday(t *testing.T) {
	// 2026-03-02 is a Monday, 2026-03-08 a Sunday.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.Equal(t, i, pythonWeekday(monday.AddDate(0, 0, i)))
	}
}

func TestDerive_Calendar(t *testing.T) {
	d := NewDeriver(NewEncoders())
	profile := ClassifyItem("Croissant", 45, 24)

	fc := testContext()
	v, err := d.Derive(profile, fc, nil, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, v[FDayOfWeek], "starting date is a Monday")
	assert.Equal(t, 1.0, v[FIsMonday])
	assert.Equal(t, 0.0, v[FIsWeekend])
	assert.Equal(t, 3.0, v[FMonth])
	assert.Equal(t, 2.0, v[FDayOfMonth])
	assert.InDelta(t, 0.0, v[FDaySin], 1e-12)
	assert.InDelta(t, 1.0, v[FDayCos], 1e-12)

	// Day 5 of the horizon is a Saturday.
	carried := &CarriedState{}
	for i := 0; i < 5; i++ {
		carried.Push(40)
	}
	v, err = d.Derive(profile, fc, nil, 5, carried)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v[FDayOfWeek])
	assert.Equal(t, 1.0, v[FIsWeekend])
	assert.Equal(t, 1.0, v[FIsSaturday])
}

func TestDerive_HistoryLags(t *testing.T) {
	d := NewDeriver(NewEncoders())
	profile := ClassifyItem("Croissant", 45, 24)
	fc := testContext()

	window := make([]contracts.SalesRecord, 0, 7)
	for i := 0; i < 7; i++ {
		window = append(window, contracts.SalesRecord{
			Date:           fc.StartingDate.AddDate(0, 0, i-7),
			ItemName:       "Croissant",
			BusinessType:   contracts.BusinessCafe,
			CustomerDemand: float64(30 + i),
			QuantitySold:   float64(28 + i),
			WasteQuantity:  2,
		})
	}

	v, err := d.Derive(profile, fc, window, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 36.0, v[FPrevDayDemand])
	assert.Equal(t, 34.0, v[FPrevDaySold])
	assert.Equal(t, 2.0, v[FPrevDayWaste])
	assert.Equal(t, 30.0, v[FPrevWeekDemand], "seven-day lag reaches the window head")
	assert.InDelta(t, 35.0, v[FRolling3Demand], 1e-9)
	assert.InDelta(t, 33.0, v[FRolling7Demand], 1e-9)
	// Window shorter than 14 days: longer horizons reuse the 7-day mean.
	assert.Equal(t, v[FRolling7Demand], v[FRolling14Demand])
	assert.Equal(t, v[FRolling7Demand], v[FRolling30Demand])
}

func TestDerive_EmptyWindowZeroSeed(t *testing.T) {
	d := NewDeriver(NewEncoders())
	profile := ClassifyItem("Croissant", 45, 24)

	v, err := d.Derive(profile, testContext(), nil, 0, nil)
	require.NoError(t, err)

	assert.Zero(t, v[FPrevDayDemand])
	assert.Zero(t, v[FRolling7Demand])
	assert.Zero(t, v[FRolling7Std])
}

func TestDerive_SyntheticLags(t *testing.T) {
	d := NewDeriver(NewEncoders())
	profile := ClassifyItem("Croissant", 45, 24)
	fc := testContext()

	carried := &CarriedState{}
	carried.Push(40)
	carried.Push(50)

	v, err := d.Derive(profile, fc, nil, 2, carried)
	require.NoError(t, err)

	assert.Equal(t, 50.0, v[FPrevDayDemand])
	assert.InDelta(t, 50*SyntheticSoldRatio, v[FPrevDaySold], 1e-9)
	assert.Equal(t, SyntheticWaste, v[FPrevDayWaste])
	assert.Equal(t, 50.0, v[FPrevWeekDemand], "partial ring falls back to last prediction")
	assert.InDelta(t, 45.0, v[FRolling7Demand], 1e-9)
	assert.Equal(t, v[FRolling7Demand], v[FRolling14Demand])
	assert.Equal(t, v[FRolling7Demand], v[FRolling30Demand])
	assert.InDelta(t, 5.0, v[FRolling7Std], 1e-9, "population std over the ring")
}

func TestDerive_RequiresCarriedStateAfterDayZero(t *testing.T) {
	d := NewDeriver(NewEncoders())
	profile := ClassifyItem("Croissant", 45, 24)

	_, err := d.Derive(profile, testContext(), nil, 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = d.Derive(profile, testContext(), nil, contracts.HorizonDays, &CarriedState{})
	require.Error(t, err)
}

func TestValidateContext(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*contracts.ForecastContext)
	}{
		{"unknown business", func(fc *contracts.ForecastContext) { fc.BusinessType = "FoodTruck" }},
		{"zero price", func(fc *contracts.ForecastContext) { fc.Price = 0 }},
		{"negative shelf life", func(fc *contracts.ForecastContext) { fc.ShelfLifeHours = -1 }},
		{"missing date", func(fc *contracts.ForecastContext) { fc.StartingDate = time.Time{} }},
		{"short weather", func(fc *contracts.ForecastContext) { fc.WeatherSequence = fc.WeatherSequence[:3] }},
		{"bad weather", func(fc *contracts.ForecastContext) { fc.WeatherSequence[2] = "Snowy" }},
		{"short holidays", func(fc *contracts.ForecastContext) { fc.HolidayFlags = fc.HolidayFlags[:2] }},
		{"bad holiday flag", func(fc *contracts.ForecastContext) { fc.HolidayFlags[0] = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := testContext()
			tt.mutate(&fc)
			err := ValidateContext(fc)
			require.Error(t, err)
			assert.ErrorIs(t, err, contracts.ErrInvalidInput)
		})
	}

	assert.NoError(t, ValidateContext(testContext()))
}

func TestDerive_InteractionFeatures(t *testing.T) {
	d := NewDeriver(NewEncoders())
	profile := ClassifyItem("Croissant", 45, 24)

	fc := testContext()
	fc.StartingDate = time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC) // a Saturday
	fc.WeatherSequence[0] = contracts.WeatherRainy
	fc.HolidayFlags[0] = 1

	v, err := d.Derive(profile, fc, nil, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, v[FWeekendXHoliday])
	assert.Equal(t, 1.0, v[FRainyXWeekend])
	assert.Equal(t, 1.0, v[FRainyXHoliday])
	assert.Equal(t, 0.0, v[FFridayXWeekend])
}

func TestCarriedState_Ring(t *testing.T) {
	s := &CarriedState{}
	for i := 1; i <= 9; i++ {
		s.Push(float64(i))
	}

	assert.Equal(t, contracts.HorizonDays, s.Len())
	assert.Equal(t, 9.0, s.Last())
	assert.Equal(t, 3.0, s.WeeklyLag(), "full ring: weekly lag is the oldest entry")
}

func TestEncoders_StableCodes(t *testing.T) {
	enc := NewEncoders()

	code, err := enc.EncodeBusiness(contracts.BusinessBakery)
	require.NoError(t, err)
	assert.Equal(t, 0.0, code)

	code, err = enc.EncodeBusiness(contracts.BusinessRestaurant)
	require.NoError(t, err)
	assert.Equal(t, 2.0, code)

	code, err = enc.EncodeCategory(contracts.CategoryBakery)
	require.NoError(t, err)
	assert.Equal(t, 0.0, code)

	_, err = enc.EncodeCategory("frozen")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrSchemaMismatch)

	_, err = enc.EncodeBusiness("FoodTruck")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrSchemaMismatch)
}

func TestEncoders_Fingerprint(t *testing.T) {
	a := NewEncoders()
	b := NewEncoders()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Categories = b.Categories[:len(b.Categories)-1]
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestClassifyItem(t *testing.T) {
	p := ClassifyItem("Croissant", 45, 24)
	assert.True(t, p.Known)
	assert.Equal(t, contracts.CategoryPastry, p.Category)
	assert.Equal(t, 2, p.Complexity)

	// Keyword match wins over the shelf-life heuristic.
	p = ClassifyItem("Iced Coffee", 30, 30)
	assert.False(t, p.Known)
	assert.Equal(t, contracts.CategoryBeverage, p.Category)

	p = ClassifyItem("Sourdough bread", 35, 48)
	assert.Equal(t, contracts.CategoryBakery, p.Category)
	assert.Equal(t, 4, p.Complexity)

	// No keyword: shelf life under 2 hours reads as a beverage.
	p = ClassifyItem("Mystery Special", 30, 1)
	assert.Equal(t, contracts.CategoryBeverage, p.Category)

	// Default bucket.
	p = ClassifyItem("Grilled Fish", 60, 6)
	assert.Equal(t, contracts.CategoryMainMeal, p.Category)
	assert.Equal(t, 2, p.Complexity)
}

func TestBuildTrainingSet_GroupsBySeries(t *testing.T) {
	d := NewDeriver(NewEncoders())
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rec := func(day int, item string, biz contracts.BusinessType, demand float64) contracts.SalesRecord {
		return contracts.SalesRecord{
			Date:           base.AddDate(0, 0, day),
			ItemName:       item,
			BusinessType:   biz,
			Price:          45,
			ShelfLifeHours: 24,
			CustomerDemand: demand,
			QuantitySold:   demand - 1,
			Weather:        contracts.WeatherClear,
		}
	}

	// Interleaved series: grouping must keep lags within each pair.
	records := []contracts.SalesRecord{
		rec(0, "Croissant", contracts.BusinessCafe, 30),
		rec(0, "Latte", contracts.BusinessCafe, 80),
		rec(1, "Croissant", contracts.BusinessCafe, 40),
		rec(1, "Latte", contracts.BusinessCafe, 90),
	}

	ts, err := d.BuildTrainingSet(records)
	require.NoError(t, err)
	require.Len(t, ts.Vectors, 4)
	require.Len(t, ts.Labels, 4)
	require.Len(t, ts.Dates, 4)

	// Sorted order: Croissant day0, day1, then Latte day0, day1.
	assert.Equal(t, []float64{30, 40, 80, 90}, ts.Labels)
	assert.Equal(t, "2026-03-02", ts.Dates[0])
	assert.Equal(t, "2026-03-03", ts.Dates[1])

	// First row of each series has no lag; second lags its own series only.
	assert.Zero(t, ts.Vectors[0][FPrevDayDemand])
	assert.Equal(t, 30.0, ts.Vectors[1][FPrevDayDemand])
	assert.Zero(t, ts.Vectors[2][FPrevDayDemand])
	assert.Equal(t, 80.0, ts.Vectors[3][FPrevDayDemand])
}

func TestBuildTrainingSet_UnknownBusiness(t *testing.T) {
	d := NewDeriver(NewEncoders())
	_, err := d.BuildTrainingSet([]contracts.SalesRecord{{
		Date:         time.Now(),
		ItemName:     "Croissant",
		BusinessType: "FoodTruck",
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrSchemaMismatch)
}

func TestSampleAndPopulationStd(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.138, sampleStd(xs), 0.001)
	assert.InDelta(t, 2.0, popStd(xs), 1e-9)
	assert.Zero(t, sampleStd([]float64{1}))
	assert.Zero(t, popStd(nil))
}
