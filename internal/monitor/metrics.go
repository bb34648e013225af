// Package monitor tracks live model accuracy: regression metric math, the
// append-only accuracy ledger, and the drift/retrain signals derived from it.
package monitor

import (
	"errors"
	"fmt"
	"math"
)

// machineEps guards MAPE division for zero observed values.
const machineEps = 2.220446049250313e-16

// Metrics bundles the standard regression accuracy metrics for one batch of
// paired observations. MAPE is in percent.
type Metrics struct {
	MAE  float64
	MAPE float64
	RMSE float64
	R2   float64
	N    int
}

// Evaluate computes all metrics over paired sequences. Mismatched lengths
// are a fatal input error, not something to reconcile silently.
func Evaluate(observed, predicted []float64) (Metrics, error) {
	if len(observed) == 0 {
		return Metrics{}, errors.New("no observations")
	}
	if len(observed) != len(predicted) {
		return Metrics{}, fmt.Errorf("length mismatch: %d observed vs %d predicted",
			len(observed), len(predicted))
	}

	n := float64(len(observed))
	var sumAbs, sumPct, sumSq, sumObs float64
	for i, y := range observed {
		d := y - predicted[i]
		sumAbs += math.Abs(d)
		sumSq += d * d
		sumPct += math.Abs(d) / math.Max(math.Abs(y), machineEps)
		sumObs += y
	}

	m := Metrics{
		MAE:  sumAbs / n,
		MAPE: sumPct / n * 100,
		RMSE: math.Sqrt(sumSq / n),
		N:    len(observed),
	}

	meanObs := sumObs / n
	var ssTot float64
	for _, y := range observed {
		d := y - meanObs
		ssTot += d * d
	}
	switch {
	case ssTot > 0:
		m.R2 = 1 - sumSq/ssTot
	case sumSq == 0:
		m.R2 = 1
	default:
		m.R2 = 0
	}

	return m, nil
}

// MAPE computes the mean absolute percentage error in percent.
func MAPE(observed, predicted []float64) (float64, error) {
	m, err := Evaluate(observed, predicted)
	if err != nil {
		return 0, err
	}
	return m.MAPE, nil
}
