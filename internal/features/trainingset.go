package features

import (
	"sort"

	"github.com/preppal/backend/internal/contracts"
)

// TrainingSet is a labeled feature matrix built from raw sales records.
type TrainingSet struct {
	Vectors []Vector
	Labels  []float64
	Dates   []string // YYYY-MM-DD, aligned with Vectors
}

// BuildTrainingSet derives the full feature schema for raw sales records in
// batch form. Records are grouped by (business, item) and ordered by date so
// lag and rolling features never leak across series. Rows keep their
// original record order semantics within each group; missing lags are zero.
func (d *Deriver) BuildTrainingSet(records []contracts.SalesRecord) (*TrainingSet, error) {
	rows := make([]contracts.SalesRecord, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].BusinessType != rows[j].BusinessType {
			return rows[i].BusinessType < rows[j].BusinessType
		}
		if rows[i].ItemName != rows[j].ItemName {
			return rows[i].ItemName < rows[j].ItemName
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	ts := &TrainingSet{
		Vectors: make([]Vector, 0, len(rows)),
		Labels:  make([]float64, 0, len(rows)),
		Dates:   make([]string, 0, len(rows)),
	}

	groupStart := 0
	for i := range rows {
		if rows[i].BusinessType != rows[groupStart].BusinessType ||
			rows[i].ItemName != rows[groupStart].ItemName {
			groupStart = i
		}
		group := rows[groupStart : i+1]

		v, err := d.deriveTrainingRow(rows[i], group)
		if err != nil {
			return nil, err
		}
		ts.Vectors = append(ts.Vectors, v)
		ts.Labels = append(ts.Labels, rows[i].CustomerDemand)
		ts.Dates = append(ts.Dates, rows[i].Date.Format("2006-01-02"))
	}
	return ts, nil
}

// deriveTrainingRow builds one row's vector. group holds the series for the
// row's (business, item) pair up to and including the row itself.
func (d *Deriver) deriveTrainingRow(r contracts.SalesRecord, group []contracts.SalesRecord) (Vector, error) {
	var v Vector

	setCalendar(&v, r.Date)
	v[FHolidayFlag] = float64(r.HolidayFlag)
	if r.Weather == contracts.WeatherRainy {
		v[FIsRainy] = 1
	}

	profile := ClassifyItem(r.ItemName, r.Price, r.ShelfLifeHours)
	catCode, err := d.enc.EncodeCategory(profile.Category)
	if err != nil {
		return v, err
	}
	bizCode, err := d.enc.EncodeBusiness(r.BusinessType)
	if err != nil {
		return v, err
	}
	v[FCategoryEncoded] = catCode
	v[FPrepComplexity] = float64(profile.Complexity)
	v[FBusinessEncoded] = bizCode
	v[FPrice] = r.Price
	v[FShelfLifeHours] = r.ShelfLifeHours

	idx := len(group) - 1
	if idx >= 1 {
		prev := group[idx-1]
		v[FPrevDayDemand] = prev.CustomerDemand
		v[FPrevDaySold] = prev.QuantitySold
		v[FPrevDayWaste] = prev.WasteQuantity
	}
	if idx >= contracts.HorizonDays {
		v[FPrevWeekDemand] = group[idx-contracts.HorizonDays].CustomerDemand
	}

	demand := make([]float64, len(group))
	for i, g := range group {
		demand[i] = g.CustomerDemand
	}
	v[FRolling3Demand] = mean(tail(demand, 3))
	v[FRolling7Demand] = mean(tail(demand, 7))
	v[FRolling14Demand] = mean(tail(demand, 14))
	v[FRolling30Demand] = mean(tail(demand, 30))
	v[FRolling7Std] = sampleStd(tail(demand, 7))
	v[FRolling14Std] = sampleStd(tail(demand, 14))

	v[FWeekendXHoliday] = v[FIsWeekend] * v[FHolidayFlag]
	v[FRainyXWeekend] = v[FIsRainy] * v[FIsWeekend]
	v[FRainyXHoliday] = v[FIsRainy] * v[FHolidayFlag]
	v[FFridayXWeekend] = v[FIsFriday] * v[FIsWeekend]

	return v, nil
}
