package features

import (
	"math"
	"time"

	"github.com/preppal/backend/internal/contracts"
)

// Autoregressive approximation constants for synthetic days (day >= 1).
// Carried over from the original heuristics unchanged: sold is assumed to
// trail demand by 5%, and no waste signal is carried beyond real history.
const (
	SyntheticSoldRatio = 0.95
	SyntheticWaste     = 0.0
)

// CarriedState is the ring of already-generated predictions threaded through
// the day-by-day state machine. Capped at HorizonDays values; day >= 1 lag
// and rolling features are computed only over this ring, never mixed with
// real history.
type CarriedState struct {
	preds []float64
}

// Push records a day's prediction, evicting the oldest once full.
func (s *CarriedState) Push(v float64) {
	s.preds = append(s.preds, v)
	if len(s.preds) > contracts.HorizonDays {
		s.preds = s.preds[1:]
	}
}

// Len returns the number of carried predictions.
func (s *CarriedState) Len() int { return len(s.preds) }

// Last returns the most recent prediction.
func (s *CarriedState) Last() float64 {
	return s.preds[len(s.preds)-1]
}

// WeeklyLag returns the prediction from seven days prior when the ring is
// full, falling back to the most recent prediction.
func (s *CarriedState) WeeklyLag() float64 {
	if len(s.preds) == contracts.HorizonDays {
		return s.preds[0]
	}
	return s.Last()
}

// Values returns the carried predictions, oldest first.
func (s *CarriedState) Values() []float64 { return s.preds }

// Deriver maps (item profile, context, history, day index, carried state)
// to a fixed-schema feature vector.
type Deriver struct {
	enc Encoders
}

// NewDeriver creates a deriver bound to the given encoders.
func NewDeriver(enc Encoders) *Deriver {
	return &Deriver{enc: enc}
}

// Encoders returns the deriver's encoders.
func (d *Deriver) Encoders() Encoders { return d.enc }

// ValidateContext rejects malformed forecast contexts before any feature
// computation.
func ValidateContext(fc contracts.ForecastContext) error {
	if !fc.BusinessType.Valid() {
		return contracts.InvalidInputError("unknown business_type %q", fc.BusinessType)
	}
	if fc.Price <= 0 {
		return contracts.InvalidInputError("price must be greater than 0")
	}
	if fc.ShelfLifeHours <= 0 {
		return contracts.InvalidInputError("shelf_life_hours must be greater than 0")
	}
	if fc.StartingDate.IsZero() {
		return contracts.InvalidInputError("starting_date is required")
	}
	if len(fc.WeatherSequence) != contracts.HorizonDays {
		return contracts.InvalidInputError("weather_sequence must have exactly %d values", contracts.HorizonDays)
	}
	for _, w := range fc.WeatherSequence {
		if !w.Valid() {
			return contracts.InvalidInputError("unknown weather value %q", w)
		}
	}
	if len(fc.HolidayFlags) != contracts.HorizonDays {
		return contracts.InvalidInputError("holiday_flags must have exactly %d values", contracts.HorizonDays)
	}
	for _, f := range fc.HolidayFlags {
		if f != 0 && f != 1 {
			return contracts.InvalidInputError("holiday_flags values must be 0 or 1")
		}
	}
	return nil
}

// Derive builds the feature vector for one day of the horizon. Day 0 reads
// lags and rolling aggregates from the real historical window; later days
// read them exclusively from the carried prediction ring.
func (d *Deriver) Derive(
	profile contracts.ItemProfile,
	fc contracts.ForecastContext,
	window []contracts.SalesRecord,
	dayIndex int,
	carried *CarriedState,
) (Vector, error) {
	var v Vector

	if dayIndex < 0 || dayIndex >= contracts.HorizonDays {
		return v, contracts.InvalidInputError("day_index %d outside horizon", dayIndex)
	}
	if err := ValidateContext(fc); err != nil {
		return v, err
	}
	if dayIndex > 0 && (carried == nil || carried.Len() == 0) {
		return v, contracts.InvalidInputError("day_index %d requires carried predictions", dayIndex)
	}

	date := fc.StartingDate.AddDate(0, 0, dayIndex)
	setCalendar(&v, date)

	v[FHolidayFlag] = float64(fc.HolidayFlags[dayIndex])
	if fc.WeatherSequence[dayIndex] == contracts.WeatherRainy {
		v[FIsRainy] = 1
	}

	catCode, err := d.enc.EncodeCategory(profile.Category)
	if err != nil {
		return v, err
	}
	bizCode, err := d.enc.EncodeBusiness(fc.BusinessType)
	if err != nil {
		return v, err
	}
	v[FCategoryEncoded] = catCode
	v[FPrepComplexity] = float64(profile.Complexity)
	v[FBusinessEncoded] = bizCode
	v[FPrice] = fc.Price
	v[FShelfLifeHours] = fc.ShelfLifeHours

	if dayIndex == 0 {
		setHistoryLags(&v, window)
	} else {
		setSyntheticLags(&v, carried)
	}

	v[FWeekendXHoliday] = v[FIsWeekend] * v[FHolidayFlag]
	v[FRainyXWeekend] = v[FIsRainy] * v[FIsWeekend]
	v[FRainyXHoliday] = v[FIsRainy] * v[FHolidayFlag]
	v[FFridayXWeekend] = v[FIsFriday] * v[FIsWeekend]

	return v, nil
}

// setCalendar fills the calendar and cyclic encodings for the target date.
// Sine/cosine pairs avoid the false ordinal cliff between Sunday and Monday
// and between December and January.
func setCalendar(v *Vector, date time.Time) {
	dow := pythonWeekday(date)
	month := int(date.Month())
	_, isoWeek := date.ISOWeek()

	v[FDayOfWeek] = float64(dow)
	v[FMonth] = float64(month)
	v[FWeekOfYear] = float64(isoWeek)
	v[FDayOfMonth] = float64(date.Day())

	if dow >= 5 {
		v[FIsWeekend] = 1
	}
	if dow == 0 {
		v[FIsMonday] = 1
	}
	if dow == 4 {
		v[FIsFriday] = 1
	}
	if dow == 5 {
		v[FIsSaturday] = 1
	}
	if dow == 6 {
		v[FIsSunday] = 1
	}

	v[FDaySin] = math.Sin(2 * math.Pi * float64(dow) / 7)
	v[FDayCos] = math.Cos(2 * math.Pi * float64(dow) / 7)
	v[FMonthSin] = math.Sin(2 * math.Pi * float64(month) / 12)
	v[FMonthCos] = math.Cos(2 * math.Pi * float64(month) / 12)
}

// pythonWeekday maps time.Weekday to the Monday=0..Sunday=6 convention the
// model was trained with.
func pythonWeekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// setHistoryLags fills day-0 lag and rolling features from the tail of the
// real historical window. An empty window leaves the all-zero seed.
func setHistoryLags(v *Vector, window []contracts.SalesRecord) {
	n := len(window)
	if n == 0 {
		return
	}

	last := window[n-1]
	v[FPrevDayDemand] = last.CustomerDemand
	v[FPrevDaySold] = last.QuantitySold
	v[FPrevDayWaste] = last.WasteQuantity
	if n >= contracts.HorizonDays {
		v[FPrevWeekDemand] = window[n-contracts.HorizonDays].CustomerDemand
	} else {
		v[FPrevWeekDemand] = last.CustomerDemand
	}

	demand := make([]float64, n)
	for i, r := range window {
		demand[i] = r.CustomerDemand
	}

	v[FRolling3Demand] = mean(tail(demand, 3))
	roll7 := mean(tail(demand, 7))
	v[FRolling7Demand] = roll7
	if n >= 14 {
		v[FRolling14Demand] = mean(tail(demand, 14))
	} else {
		v[FRolling14Demand] = roll7
	}
	if n >= 30 {
		v[FRolling30Demand] = mean(tail(demand, 30))
	} else {
		v[FRolling30Demand] = roll7
	}

	std7 := sampleStd(tail(demand, 7))
	v[FRolling7Std] = std7
	if n >= 14 {
		v[FRolling14Std] = sampleStd(tail(demand, 14))
	} else {
		v[FRolling14Std] = std7
	}
}

// setSyntheticLags fills day >= 1 features from the carried prediction ring.
// The 14/30-day rolling means collapse to the 7-day mean: there is no
// longer-than-7 synthetic history to draw from.
func setSyntheticLags(v *Vector, carried *CarriedState) {
	prev := carried.Last()
	v[FPrevDayDemand] = prev
	v[FPrevDaySold] = prev * SyntheticSoldRatio
	v[FPrevDayWaste] = SyntheticWaste
	v[FPrevWeekDemand] = carried.WeeklyLag()

	rp := carried.Values()
	v[FRolling3Demand] = mean(tail(rp, 3))
	roll7 := mean(rp)
	v[FRolling7Demand] = roll7
	v[FRolling14Demand] = roll7
	v[FRolling30Demand] = roll7

	std := 0.0
	if len(rp) > 1 {
		std = popStd(rp)
	}
	v[FRolling7Std] = std
	v[FRolling14Std] = std
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 normalized standard deviation used for real-history
// windows. Fewer than 2 samples report 0.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// popStd is the population standard deviation used over synthetic
// prediction rings.
func popStd(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
