// Package retrain validates uploaded sales data and runs the candidate
// model pipeline. A candidate only replaces the live model when it beats
// it on a shared held-out window.
package retrain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/preppal/backend/internal/contracts"
)

// Column names expected in uploaded sales CSVs.
var csvColumns = []string{
	"business_type", "item_name", "date", "price", "shelf_life_hours",
	"quantity_available", "quantity_sold", "customer_demand",
	"waste_quantity", "weather_condition", "holiday_flag",
}

const dateLayout = "2006-01-02"

// ParseCSV reads an uploaded sales CSV into records. Column order is
// free but the header row is mandatory. Structural problems (missing
// required columns, unparseable cells) come back as a
// SchemaViolationError so the caller can surface them itemized.
func ParseCSV(r io.Reader) ([]contracts.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	var violations []string
	required := []string{"date", "item_name", "quantity_sold"}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &contracts.SchemaViolationError{
			Violations: []string{fmt.Sprintf("missing required columns: %v", missing)},
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	number := func(row []string, name string, line int) float64 {
		raw := field(row, name)
		if raw == "" {
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: %s is not numeric: %q", line, name, raw))
			return 0
		}
		return v
	}

	var records []contracts.SalesRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		rec := contracts.SalesRecord{
			ItemName:     field(row, "item_name"),
			BusinessType: contracts.BusinessType(field(row, "business_type")),
			Weather:      contracts.Weather(field(row, "weather_condition")),
		}
		rec.Date, err = time.Parse(dateLayout, field(row, "date"))
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: date has invalid format, use YYYY-MM-DD", line))
		}
		rec.Price = number(row, "price", line)
		rec.ShelfLifeHours = number(row, "shelf_life_hours", line)
		rec.QuantityAvailable = number(row, "quantity_available", line)
		rec.QuantitySold = number(row, "quantity_sold", line)
		rec.CustomerDemand = number(row, "customer_demand", line)
		rec.WasteQuantity = number(row, "waste_quantity", line)
		rec.HolidayFlag = int(number(row, "holiday_flag", line))
		records = append(records, rec)
	}

	if len(violations) > 0 {
		return nil, &contracts.SchemaViolationError{Violations: violations}
	}
	return records, nil
}
