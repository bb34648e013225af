package model

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/preppal/backend/internal/monitor"
)

// candidateAlphas are the ridge regularization strengths tried during model
// selection.
var candidateAlphas = []float64{0.1, 1.0, 10.0}

// TrainCandidate fits the default candidate regressor used by the retrain
// gate: business-segmented ridges with unit regularization.
func TrainCandidate(features [][]float64, labels []float64) (Regressor, error) {
	s := NewSegmented(1.0)
	if err := s.Fit(features, labels); err != nil {
		return nil, err
	}
	return s, nil
}

// TrainSelected runs the full selection pipeline: fit a segmented model per
// candidate alpha, score each on the held-out split, build an inverse-MAPE
// weighted ensemble over them, and keep whichever single model or ensemble
// scores best. Returns the winner and its test MAPE.
func TrainSelected(trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, log zerolog.Logger) (Regressor, float64, error) {
	if len(testX) == 0 {
		return nil, 0, fmt.Errorf("empty test split")
	}
	log = log.With().Str("component", "model.trainer").Logger()

	members := make([]*Segmented, 0, len(candidateAlphas))
	mapes := make([]float64, 0, len(candidateAlphas))
	bestIdx := -1
	bestMAPE := 0.0

	for _, alpha := range candidateAlphas {
		r := NewSegmented(alpha)
		if err := r.Fit(trainX, trainY); err != nil {
			return nil, 0, fmt.Errorf("fit segmented alpha=%v: %w", alpha, err)
		}
		mape, err := scoreMAPE(r, testX, testY)
		if err != nil {
			return nil, 0, fmt.Errorf("score segmented alpha=%v: %w", alpha, err)
		}
		log.Debug().Float64("alpha", alpha).Float64("test_mape", mape).Msg("candidate scored")

		members = append(members, r)
		mapes = append(mapes, mape)
		if bestIdx == -1 || mape < bestMAPE {
			bestIdx = len(members) - 1
			bestMAPE = mape
		}
	}

	winner := Regressor(members[bestIdx])
	winnerMAPE := bestMAPE

	weights, err := WeightsFromMAPE(mapes)
	if err == nil {
		ens, err := NewEnsemble(members, weights)
		if err == nil {
			if ensMAPE, err := scoreMAPE(ens, testX, testY); err == nil && ensMAPE < bestMAPE {
				winner = ens
				winnerMAPE = ensMAPE
			}
		}
	}

	log.Info().
		Float64("test_mape", winnerMAPE).
		Int("train_rows", len(trainX)).
		Int("test_rows", len(testX)).
		Msg("model selection completed")

	return winner, winnerMAPE, nil
}

// scoreMAPE evaluates a fitted regressor on a held-out split.
func scoreMAPE(reg Regressor, testX [][]float64, testY []float64) (float64, error) {
	predicted := make([]float64, len(testX))
	for i, row := range testX {
		p, err := reg.Predict(row)
		if err != nil {
			return 0, err
		}
		predicted[i] = p
	}
	return monitor.MAPE(testY, predicted)
}
