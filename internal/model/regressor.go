// Package model holds the regression collaborator behind the forecast
// generator: concrete regressors, the persisted artifact format, and the
// atomically swappable live-model store.
package model

// Regressor is the opaque collaborator the forecasting core depends on.
// Implementations must keep the feature width they were fitted with and
// refuse to predict on any other width.
type Regressor interface {
	Fit(features [][]float64, labels []float64) error
	Predict(features []float64) (float64, error)
}

// Regressor kinds stored in artifacts.
const (
	KindRidge     = "ridge"
	KindSegmented = "segmented"
	KindEnsemble  = "ensemble"
)
