package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/preppal/backend/internal/contracts"
)

// Default monitoring thresholds.
const (
	// DefaultDriftMAPE is the per-batch MAPE above which a drift signal is
	// raised immediately.
	DefaultDriftMAPE = 25.0
	// DefaultRetrainMAPE is the rolling-average MAPE above which
	// retraining is warranted.
	DefaultRetrainMAPE = 12.0
	// DefaultRetrainWindow is the number of ledger entries averaged for
	// the retrain decision.
	DefaultRetrainWindow = 7
)

// Monitor derives rolling health signals from the accuracy ledger.
type Monitor struct {
	ledger    Ledger
	driftMAPE float64
	log       zerolog.Logger
}

// New creates a monitor over a ledger with the given drift threshold.
func New(ledger Ledger, driftMAPE float64, log zerolog.Logger) *Monitor {
	if driftMAPE <= 0 {
		driftMAPE = DefaultDriftMAPE
	}
	return &Monitor{
		ledger:    ledger,
		driftMAPE: driftMAPE,
		log:       log.With().Str("component", "monitor").Logger(),
	}
}

// Log evaluates one batch of realized sales against their predictions and
// appends the result to the ledger. A MAPE above the drift threshold raises
// a drift signal in the logs; the record is appended either way.
func (m *Monitor) Log(ctx context.Context, observed, predicted []float64, businessType contracts.BusinessType, itemName string) (contracts.AccuracyRecord, error) {
	metrics, err := Evaluate(observed, predicted)
	if err != nil {
		return contracts.AccuracyRecord{}, fmt.Errorf("evaluate predictions: %w", err)
	}

	rec := contracts.AccuracyRecord{
		Timestamp:    time.Now().UTC(),
		MAE:          metrics.MAE,
		MAPE:         metrics.MAPE,
		RMSE:         metrics.RMSE,
		R2:           metrics.R2,
		NPredictions: metrics.N,
		BusinessType: businessType,
		ItemName:     itemName,
	}

	rec, err = m.ledger.Append(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("append to ledger: %w", err)
	}

	if rec.MAPE > m.driftMAPE {
		m.log.Warn().
			Float64("mape", rec.MAPE).
			Float64("threshold", m.driftMAPE).
			Str("item", itemName).
			Str("business_type", string(businessType)).
			Msg("model drift detected")
	} else {
		m.log.Debug().
			Float64("mape", rec.MAPE).
			Float64("mae", rec.MAE).
			Int("n", rec.NPredictions).
			Msg("accuracy logged")
	}

	return rec, nil
}

// RecentPerformance averages MAE, MAPE and R2 over the last n entries.
// Returns nil when the ledger is empty.
func (m *Monitor) RecentPerformance(ctx context.Context, n int) (*contracts.RecentPerformance, error) {
	recent, err := m.ledger.Recent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(recent) == 0 {
		return nil, nil
	}

	var sumMAPE, sumMAE, sumR2 float64
	for _, r := range recent {
		sumMAPE += r.MAPE
		sumMAE += r.MAE
		sumR2 += r.R2
	}
	count := float64(len(recent))
	return &contracts.RecentPerformance{
		AvgMAPE: sumMAPE / count,
		AvgMAE:  sumMAE / count,
		AvgR2:   sumR2 / count,
		Window:  len(recent),
	}, nil
}

// NeedsRetraining reports true only once the ledger holds at least window
// entries and their mean MAPE exceeds the threshold. During the warm-up
// period before window entries exist it always reports false.
func (m *Monitor) NeedsRetraining(ctx context.Context, threshold float64, window int) (bool, error) {
	count, err := m.ledger.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count ledger: %w", err)
	}
	if count < window {
		return false, nil
	}

	recent, err := m.ledger.Recent(ctx, window)
	if err != nil {
		return false, fmt.Errorf("read ledger: %w", err)
	}

	var sum float64
	for _, r := range recent {
		sum += r.MAPE
	}
	avg := sum / float64(len(recent))
	if avg > threshold {
		m.log.Warn().
			Float64("avg_mape", avg).
			Float64("threshold", threshold).
			Int("window", window).
			Msg("retraining needed")
		return true, nil
	}
	return false, nil
}
