package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/preppal/backend/internal/contracts"
)

// Ridge is an L2-regularized linear regressor fitted by solving the normal
// equations. The intercept is left unregularized.
type Ridge struct {
	Alpha     float64   `json:"alpha"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewRidge creates an unfitted ridge regressor.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

// Fit solves (X'X + alpha*I) w = X'y with an appended intercept column.
func (r *Ridge) Fit(features [][]float64, labels []float64) error {
	n := len(features)
	if n == 0 {
		return errors.New("ridge: no training rows")
	}
	if len(labels) != n {
		return fmt.Errorf("ridge: %d rows but %d labels", n, len(labels))
	}
	p := len(features[0])
	if p == 0 {
		return errors.New("ridge: empty feature rows")
	}
	for i, row := range features {
		if len(row) != p {
			return fmt.Errorf("ridge: row %d has width %d, want %d", i, len(row), p)
		}
	}

	// Augmented design: p feature columns plus an intercept column.
	d := p + 1
	ata := make([][]float64, d)
	for i := range ata {
		ata[i] = make([]float64, d)
	}
	aty := make([]float64, d)

	for i := 0; i < n; i++ {
		row := features[i]
		for j := 0; j < d; j++ {
			xj := 1.0
			if j < p {
				xj = row[j]
			}
			aty[j] += xj * labels[i]
			for k := j; k < d; k++ {
				xk := 1.0
				if k < p {
					xk = row[k]
				}
				ata[j][k] += xj * xk
			}
		}
	}
	for j := 0; j < d; j++ {
		for k := 0; k < j; k++ {
			ata[j][k] = ata[k][j]
		}
	}
	for j := 0; j < p; j++ {
		ata[j][j] += r.Alpha
	}

	w, err := solveLinearSystem(ata, aty)
	if err != nil {
		return fmt.Errorf("ridge: %w", err)
	}

	r.Weights = w[:p]
	r.Intercept = w[p]
	return nil
}

// Predict returns the linear estimate for one feature vector.
func (r *Ridge) Predict(features []float64) (float64, error) {
	if r.Weights == nil {
		return 0, errors.New("ridge: not fitted")
	}
	if len(features) != len(r.Weights) {
		return 0, fmt.Errorf("%w: got %d features, model fitted on %d",
			contracts.ErrSchemaMismatch, len(features), len(r.Weights))
	}
	out := r.Intercept
	for i, x := range features {
		out += r.Weights[i] * x
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, errors.New("ridge: non-finite prediction")
	}
	return out, nil
}

// solveLinearSystem solves a*x = b in place via Gaussian elimination with
// partial pivoting.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("singular system")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= f * a[col][k]
			}
			b[row] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}
