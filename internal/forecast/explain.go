package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/preppal/backend/internal/contracts"
)

// maxExplanationFactors caps how many factor phrases one explanation keeps.
const maxExplanationFactors = 3

// ComposeExplanation builds the day's human-readable rationale. Candidate
// factors are collected in a fixed order and only the first three kept.
// Cafes see reduced weekday-office traffic on weekends, so their weekend
// factor points the other way.
func ComposeExplanation(date time.Time, businessType contracts.BusinessType, isHoliday, isRainy bool, rolling7 float64) string {
	var factors []string

	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		if businessType == contracts.BusinessCafe {
			factors = append(factors, "weekend drop")
		} else {
			factors = append(factors, "weekend uplift")
		}
	}
	if isHoliday {
		factors = append(factors, "holiday effect")
	}
	if isRainy {
		factors = append(factors, "rainy weather")
	}
	factors = append(factors, fmt.Sprintf("7-day avg (%.0f)", rolling7))

	if len(factors) > maxExplanationFactors {
		factors = factors[:maxExplanationFactors]
	}
	return "Based on: " + strings.Join(factors, ", ")
}
