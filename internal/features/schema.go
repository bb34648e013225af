// Package features derives the fixed-schema feature vectors shared by the
// training and inference paths. The schema is invariant: any width or
// vocabulary disagreement between a stored model artifact and this package
// is a fatal contract violation, not a recoverable error.
package features

// Feature indices. Order is part of the model contract and must never be
// reordered without retraining every artifact.
const (
	FDayOfWeek = iota
	FMonth
	FWeekOfYear
	FDayOfMonth
	FIsWeekend
	FIsMonday
	FIsFriday
	FIsSaturday
	FIsSunday
	FDaySin
	FDayCos
	FMonthSin
	FMonthCos
	FHolidayFlag
	FIsRainy
	FCategoryEncoded
	FPrepComplexity
	FBusinessEncoded
	FPrice
	FShelfLifeHours
	FPrevDayDemand
	FPrevDaySold
	FPrevDayWaste
	FPrevWeekDemand
	FRolling3Demand
	FRolling7Demand
	FRolling14Demand
	FRolling30Demand
	FRolling7Std
	FRolling14Std
	FWeekendXHoliday
	FRainyXWeekend
	FRainyXHoliday
	FFridayXWeekend

	// FeatureCount is the fixed schema width.
	FeatureCount
)

// Vector is one day's feature vector in schema order.
type Vector [FeatureCount]float64

// Slice returns the vector as a plain slice for the regression collaborator.
func (v Vector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

var featureNames = [FeatureCount]string{
	"day_of_week", "month", "week_of_year", "day_of_month",
	"is_weekend", "is_monday", "is_friday", "is_saturday", "is_sunday",
	"day_sin", "day_cos", "month_sin", "month_cos",
	"holiday_flag", "is_rainy",
	"category_encoded", "preparation_complexity",
	"business_encoded", "price", "shelf_life_hours",
	"prev_day_demand", "prev_day_sold", "prev_day_waste", "prev_week_demand",
	"rolling_3day_demand", "rolling_7day_demand",
	"rolling_14day_demand", "rolling_30day_demand",
	"rolling_7day_std", "rolling_14day_std",
	"weekend_x_holiday", "rainy_x_weekend", "rainy_x_holiday", "friday_x_weekend",
}

// Names returns the feature names in schema order.
func Names() []string {
	out := make([]string, FeatureCount)
	copy(out, featureNames[:])
	return out
}
