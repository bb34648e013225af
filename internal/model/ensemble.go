package model

import (
	"errors"
	"fmt"
)

// Ensemble combines fitted regressors with fixed weights. Weights are
// assigned from inverse test MAPE by the trainer, so stronger members
// contribute more.
type Ensemble struct {
	Members []*Segmented `json:"members"`
	Weights []float64    `json:"weights"`
}

// NewEnsemble pairs fitted members with normalized weights.
func NewEnsemble(members []*Segmented, weights []float64) (*Ensemble, error) {
	if len(members) == 0 {
		return nil, errors.New("ensemble: no members")
	}
	if len(members) != len(weights) {
		return nil, fmt.Errorf("ensemble: %d members but %d weights", len(members), len(weights))
	}
	return &Ensemble{Members: members, Weights: weights}, nil
}

// WeightsFromMAPE converts per-member test MAPE scores into normalized
// inverse-error weights.
func WeightsFromMAPE(mapes []float64) ([]float64, error) {
	if len(mapes) == 0 {
		return nil, errors.New("ensemble: no scores")
	}
	invTotal := 0.0
	for _, s := range mapes {
		if s <= 0 {
			return nil, fmt.Errorf("ensemble: non-positive MAPE %v", s)
		}
		invTotal += 1 / s
	}
	weights := make([]float64, len(mapes))
	for i, s := range mapes {
		weights[i] = (1 / s) / invTotal
	}
	return weights, nil
}

// Fit refits every member on the same data. Weights are left unchanged.
func (e *Ensemble) Fit(features [][]float64, labels []float64) error {
	for i, m := range e.Members {
		if err := m.Fit(features, labels); err != nil {
			return fmt.Errorf("ensemble member %d: %w", i, err)
		}
	}
	return nil
}

// Predict returns the weighted sum of member predictions.
func (e *Ensemble) Predict(features []float64) (float64, error) {
	out := 0.0
	for i, m := range e.Members {
		p, err := m.Predict(features)
		if err != nil {
			return 0, fmt.Errorf("ensemble member %d: %w", i, err)
		}
		out += p * e.Weights[i]
	}
	return out, nil
}
