package forecast

import (
	"fmt"
	"math"
)

// RiskLevel classifies expected waste for a planned production quantity.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Waste-risk thresholds in percent of planned quantity.
const (
	wasteHighPct   = 15.0
	wasteMediumPct = 5.0
)

// RiskAssessment is the outcome of a waste-risk check.
type RiskAssessment struct {
	Level           RiskLevel `json:"risk_level"`
	WastePercentage float64   `json:"waste_percentage"`
	ExpectedWaste   int       `json:"expected_waste"`
	Message         string    `json:"message"`
	Color           string    `json:"color"`
}

// AssessWasteRisk classifies the waste risk of producing planned units
// against predicted demand. A zero plan carries no waste and is always LOW.
func AssessWasteRisk(predictedDemand, plannedQuantity int) RiskAssessment {
	if plannedQuantity == 0 {
		return RiskAssessment{
			Level:   RiskLow,
			Message: "No production planned.",
			Color:   "green",
		}
	}

	wastePct := float64(plannedQuantity-predictedDemand) / float64(plannedQuantity) * 100
	wastePct = math.Round(wastePct*100) / 100
	expected := plannedQuantity - predictedDemand
	if expected < 0 {
		expected = 0
	}

	switch {
	case wastePct > wasteHighPct:
		return RiskAssessment{RiskHigh, wastePct, expected,
			"High waste risk - reduce quantity.", "red"}
	case wastePct > wasteMediumPct:
		return RiskAssessment{RiskMedium, wastePct, expected,
			"Moderate waste risk - consider reducing.", "yellow"}
	}
	return RiskAssessment{RiskLow, wastePct, expected,
		"Good planning - minimal waste expected.", "green"}
}

// Recommendation advises how to adjust a production plan toward the
// buffered demand prediction.
type Recommendation struct {
	RecommendedQuantity int    `json:"recommended_quantity"`
	Action              string `json:"action"`
	Reason              string `json:"reason"`
	Explanation         string `json:"explanation"`
}

// recommendTolerance is the plan difference, in units, below which the
// current plan is kept.
const recommendTolerance = 5

// Recommend compares the buffered prediction against the current plan and
// advises REDUCE, INCREASE or MAINTAIN.
func Recommend(predictedDemand, currentPlan int) Recommendation {
	recommended := int(math.Round(float64(predictedDemand) * quantityBuffer))
	diff := recommended - currentPlan

	rec := Recommendation{
		RecommendedQuantity: recommended,
		Explanation: fmt.Sprintf(
			"Predicted demand: %d units. With 5%% safety buffer, recommend %d units.",
			predictedDemand, recommended),
	}
	switch {
	case diff < -recommendTolerance:
		rec.Action = fmt.Sprintf("REDUCE by %d units", -diff)
		rec.Reason = "Current plan exceeds predicted demand - reducing avoids waste."
	case diff > recommendTolerance:
		rec.Action = fmt.Sprintf("INCREASE by %d units", diff)
		rec.Reason = "Current plan is below predicted demand - increasing avoids stockouts."
	default:
		rec.Action = "MAINTAIN current plan"
		rec.Reason = "Current plan is within the optimal range."
	}
	return rec
}
