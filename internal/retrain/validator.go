package retrain

import (
	"fmt"
	"time"

	"github.com/preppal/backend/internal/contracts"
)

// ValidateUpload runs the pre-retrain checks on uploaded records:
// negative sales, sales exceeding availability, empty upload. Returns a
// SchemaViolationError listing every failure, nil when clean.
func ValidateUpload(records []contracts.SalesRecord) error {
	var violations []string

	if len(records) == 0 {
		violations = append(violations, "upload contains no rows")
	}

	negatives, oversold := 0, 0
	for _, rec := range records {
		if rec.QuantitySold < 0 {
			negatives++
		}
		if rec.QuantitySold > rec.QuantityAvailable {
			oversold++
		}
	}
	if negatives > 0 {
		violations = append(violations, fmt.Sprintf("found %d negative quantity_sold value(s)", negatives))
	}
	if oversold > 0 {
		violations = append(violations, fmt.Sprintf("%d row(s) have quantity_sold > quantity_available", oversold))
	}

	if len(violations) > 0 {
		return &contracts.SchemaViolationError{Violations: violations}
	}
	return nil
}

// DatasetReport is the outcome of the full historical dataset audit.
type DatasetReport struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
	Rows     int      `json:"rows"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

// ValidateDataset audits a full training dataset: negatives across all
// quantity columns, sales vs availability and demand, the waste
// identity, duplicate (date, item) pairs, date continuity, price and
// shelf-life ranges, and categorical vocabularies. Deeper than
// ValidateUpload, intended for the initial training corpus.
func ValidateDataset(records []contracts.SalesRecord) DatasetReport {
	report := DatasetReport{Rows: len(records)}
	if len(records) == 0 {
		report.Issues = append(report.Issues, "dataset is empty")
		return report
	}

	counts := struct {
		negAvailable, negSold, negDemand, negWaste int
		oversold, overdemand, badWaste             int
		badPrice, badShelf, badWeather, badHoliday int
	}{}

	type dayItem struct {
		date time.Time
		item string
	}
	seen := map[dayItem]int{}
	items := map[string]struct{}{}
	minDate, maxDate := records[0].Date, records[0].Date

	for _, rec := range records {
		if rec.QuantityAvailable < 0 {
			counts.negAvailable++
		}
		if rec.QuantitySold < 0 {
			counts.negSold++
		}
		if rec.CustomerDemand < 0 {
			counts.negDemand++
		}
		if rec.WasteQuantity < 0 {
			counts.negWaste++
		}
		if rec.QuantitySold > rec.QuantityAvailable {
			counts.oversold++
		}
		if rec.QuantitySold > rec.CustomerDemand {
			counts.overdemand++
		}
		expected := rec.QuantityAvailable - rec.QuantitySold
		if expected < 0 {
			expected = 0
		}
		if rec.WasteQuantity != expected {
			counts.badWaste++
		}
		if rec.Price <= 0 {
			counts.badPrice++
		}
		if rec.ShelfLifeHours < 0 {
			counts.badShelf++
		}
		if !rec.Weather.Valid() {
			counts.badWeather++
		}
		if rec.HolidayFlag != 0 && rec.HolidayFlag != 1 {
			counts.badHoliday++
		}

		seen[dayItem{rec.Date, rec.ItemName}]++
		items[rec.ItemName] = struct{}{}
		if rec.Date.Before(minDate) {
			minDate = rec.Date
		}
		if rec.Date.After(maxDate) {
			maxDate = rec.Date
		}
	}

	addIssue := func(n int, format string) {
		if n > 0 {
			report.Issues = append(report.Issues, fmt.Sprintf(format, n))
		}
	}
	addIssue(counts.negAvailable, "quantity_available: %d negative value(s)")
	addIssue(counts.negSold, "quantity_sold: %d negative value(s)")
	addIssue(counts.negDemand, "customer_demand: %d negative value(s)")
	addIssue(counts.negWaste, "waste_quantity: %d negative value(s)")
	addIssue(counts.oversold, "%d rows: quantity_sold > quantity_available")
	addIssue(counts.overdemand, "%d rows: quantity_sold > customer_demand")
	addIssue(counts.badWaste, "%d rows: incorrect waste calculation")
	addIssue(counts.badPrice, "%d rows: price must be positive")
	addIssue(counts.badShelf, "%d rows: shelf life cannot be negative")
	addIssue(counts.badWeather, "%d rows: invalid weather values")
	addIssue(counts.badHoliday, "%d rows: holiday_flag must be 0 or 1")

	dupes := 0
	for _, n := range seen {
		if n > 1 {
			dupes += n
		}
	}
	if dupes > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d duplicate date-item combinations", dupes))
	}

	// Continuity is advisory only: a gap does not block training.
	days := int(maxDate.Sub(minDate).Hours()/24) + 1
	if expected := days * len(items); expected != len(records) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("expected %d rows for a continuous range, found %d", expected, len(records)))
	}

	report.Valid = len(report.Issues) == 0
	report.From = minDate.Format(dateLayout)
	report.To = maxDate.Format(dateLayout)
	return report
}
