package forecast

import (
	"math"

	"github.com/preppal/backend/internal/contracts"
)

// Confidence decay across the horizon: the score starts at the base for
// day 0 and loses decay per day until the floor.
const (
	confidenceBase  = 0.85
	confidenceDecay = 0.05
	confidenceFloor = 0.55
)

// ConfidenceScore is a pure function of the day's position in the horizon:
// strictly non-increasing, clamped at the floor from day 6 onward.
func ConfidenceScore(dayIndex int) float64 {
	score := confidenceBase - confidenceDecay*float64(dayIndex)
	if score < confidenceFloor {
		score = confidenceFloor
	}
	return math.Round(score*100) / 100
}

// ConfidenceLevel buckets a score into High/Medium/Low.
func ConfidenceLevel(score float64) contracts.ConfidenceLevel {
	switch {
	case score >= 0.75:
		return contracts.ConfidenceHigh
	case score >= 0.60:
		return contracts.ConfidenceMedium
	}
	return contracts.ConfidenceLow
}
