// Package forecast implements the recursive 7-day demand forecast
// generator and the advisory layers built on top of it: confidence decay,
// explanations, waste-risk classification and production recommendations.
package forecast

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/features"
	"github.com/preppal/backend/internal/model"
)

// quantityBuffer is the safety margin applied on top of predicted demand.
const quantityBuffer = 1.05

// Generator drives the day-by-day autoregressive forecast. It performs no
// I/O; each request costs exactly HorizonDays calls into the regression
// collaborator held by the model store.
type Generator struct {
	store *model.Store
	log   zerolog.Logger
}

// NewGenerator creates a generator bound to the live model store.
func NewGenerator(store *model.Store, log zerolog.Logger) *Generator {
	return &Generator{
		store: store,
		log:   log.With().Str("component", "forecast.generator").Logger(),
	}
}

// PredictWeek generates the 7-day forecast for one item. The window holds
// real history for the (item, business) pair, already resolved by the
// caller (possibly a business-level aggregate, possibly empty for a
// cold-start item). Day 0 draws lags from the window; days 1-6 feed on the
// generator's own predictions through an explicit carried-prediction ring.
func (g *Generator) PredictWeek(
	ctx context.Context,
	itemName string,
	fc contracts.ForecastContext,
	window []contracts.SalesRecord,
) (*contracts.WeekForecast, error) {
	if err := features.ValidateContext(fc); err != nil {
		return nil, err
	}

	artifact, err := g.store.Current()
	if err != nil {
		return nil, err
	}
	regressor, err := artifact.Regressor()
	if err != nil {
		return nil, err
	}

	profile := features.ClassifyItem(itemName, fc.Price, fc.ShelfLifeHours)
	deriver := features.NewDeriver(artifact.Encoders)
	carried := &features.CarriedState{}

	days := make([]contracts.ForecastDay, 0, contracts.HorizonDays)
	for day := 0; day < contracts.HorizonDays; day++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		vec, err := deriver.Derive(profile, fc, window, day, carried)
		if err != nil {
			return nil, err
		}

		estimate, err := regressor.Predict(vec.Slice())
		if err != nil {
			return nil, &contracts.ComputationError{DayIndex: day, Err: err}
		}

		demand := int(math.Round(estimate))
		if demand < 0 {
			demand = 0
		}
		carried.Push(float64(demand))

		date := fc.StartingDate.AddDate(0, 0, day)
		score := ConfidenceScore(day)
		isHoliday := fc.HolidayFlags[day] == 1
		isRainy := fc.WeatherSequence[day] == contracts.WeatherRainy

		days = append(days, contracts.ForecastDay{
			Date:                date,
			DayIndex:            day,
			PredictedDemand:     demand,
			RecommendedQuantity: int(math.Round(float64(demand) * quantityBuffer)),
			Confidence:          ConfidenceLevel(score),
			ConfidenceScore:     score,
			Weather:             fc.WeatherSequence[day],
			IsHoliday:           isHoliday,
			IsNewItem:           !profile.Known,
			Explanation: ComposeExplanation(
				date, fc.BusinessType, isHoliday, isRainy, vec[features.FRolling7Demand]),
		})
	}

	g.log.Debug().
		Str("item", itemName).
		Str("business_type", string(fc.BusinessType)).
		Bool("new_item", !profile.Known).
		Int("history_rows", len(window)).
		Int("day0_demand", days[0].PredictedDemand).
		Msg("week forecast generated")

	return &contracts.WeekForecast{
		ItemName:     itemName,
		BusinessType: fc.BusinessType,
		Days:         days,
		ModelVersion: artifact.Version,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
