package retrain

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/features"
	"github.com/preppal/backend/internal/history"
	"github.com/preppal/backend/internal/model"
	"github.com/preppal/backend/internal/monitor"
)

// testSplitDays is the trailing window held out for candidate scoring.
const testSplitDays = 30

// Gate runs retrain attempts and decides promotion. At most one attempt
// runs at a time; concurrent callers get ErrRetrainInProgress instead
// of queueing.
type Gate struct {
	store   *model.Store
	history history.Store
	log     zerolog.Logger

	mu sync.Mutex
}

// NewGate creates a retrain gate over the live model store and the
// sales history baseline.
func NewGate(store *model.Store, hist history.Store, log zerolog.Logger) *Gate {
	return &Gate{
		store:   store,
		history: hist,
		log:     log.With().Str("component", "retrain.gate").Logger(),
	}
}

// Attempt validates the uploaded records, trains a candidate on the
// combined corpus, scores it against the incumbent on the same held-out
// window, and deploys only on strict improvement. The incumbent stays
// live throughout; a failed attempt changes nothing. The uploaded rows
// join the history baseline only when the candidate deploys.
func (g *Gate) Attempt(ctx context.Context, uploaded []contracts.SalesRecord) (*contracts.RetrainDecision, error) {
	if !g.mu.TryLock() {
		return nil, contracts.ErrRetrainInProgress
	}
	defer g.mu.Unlock()

	attemptID := uuid.NewString()
	log := g.log.With().Str("attempt_id", attemptID).Logger()
	log.Info().Int("uploaded_rows", len(uploaded)).Msg("retrain attempt started")

	if err := ValidateUpload(uploaded); err != nil {
		log.Warn().Err(err).Msg("upload rejected")
		return nil, err
	}

	incumbent, err := g.store.Current()
	if err != nil {
		return nil, fmt.Errorf("load incumbent: %w", err)
	}
	incumbentReg, err := incumbent.Regressor()
	if err != nil {
		return nil, err
	}

	baseline, err := g.history.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history baseline: %w", err)
	}
	combined := make([]contracts.SalesRecord, 0, len(baseline)+len(uploaded))
	combined = append(combined, baseline...)
	combined = append(combined, uploaded...)

	deriver := features.NewDeriver(incumbent.Encoders)
	ts, err := deriver.BuildTrainingSet(combined)
	if err != nil {
		return nil, fmt.Errorf("build training set: %w", err)
	}

	trainX, trainY, testX, testY, err := TimeSplit(ts)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("train_rows", len(trainX)).
		Int("test_rows", len(testX)).
		Msg("time split ready")

	candidate, err := model.TrainCandidate(trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("train candidate: %w", err)
	}

	newMAPE, err := scoreRegressor(candidate, testX, testY)
	if err != nil {
		return nil, fmt.Errorf("score candidate: %w", err)
	}
	oldMAPE, err := scoreRegressor(incumbentReg, testX, testY)
	if err != nil {
		return nil, fmt.Errorf("score incumbent: %w", err)
	}

	decision := &contracts.RetrainDecision{
		AttemptID:   attemptID,
		OldMAPE:     round2(oldMAPE),
		NewMAPE:     round2(newMAPE),
		Improvement: round2(oldMAPE - newMAPE),
		DecidedAt:   time.Now().UTC(),
	}

	if newMAPE < oldMAPE {
		artifact, err := model.NewArtifact(candidate, incumbent.Encoders, newMAPE)
		if err != nil {
			return nil, err
		}
		if err := g.store.Deploy(artifact); err != nil {
			return nil, fmt.Errorf("deploy candidate: %w", err)
		}
		if err := g.history.Append(ctx, uploaded); err != nil {
			return nil, fmt.Errorf("grow history baseline: %w", err)
		}
		decision.Deployed = true
		decision.Reason = "New model improved performance"
		log.Info().
			Float64("old_mape", decision.OldMAPE).
			Float64("new_mape", decision.NewMAPE).
			Str("version", artifact.Version).
			Msg("candidate deployed")
	} else {
		decision.Reason = "New model did not improve performance"
		log.Info().
			Float64("old_mape", decision.OldMAPE).
			Float64("new_mape", decision.NewMAPE).
			Msg("incumbent kept")
	}

	return decision, nil
}

// TimeSplit cuts the set at maxDate minus testSplitDays: rows on or
// before the cutoff train, rows after it test. Shared by initial
// training and retraining so candidates and incumbents always score on
// the same window shape.
func TimeSplit(ts *features.TrainingSet) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, err error) {
	if len(ts.Vectors) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: empty training set", contracts.ErrInsufficientData)
	}

	var maxDate time.Time
	dates := make([]time.Time, len(ts.Dates))
	for i, s := range ts.Dates {
		d, perr := time.Parse(dateLayout, s)
		if perr != nil {
			return nil, nil, nil, nil, fmt.Errorf("parse training date %q: %w", s, perr)
		}
		dates[i] = d
		if d.After(maxDate) {
			maxDate = d
		}
	}
	cutoff := maxDate.AddDate(0, 0, -testSplitDays)

	for i, v := range ts.Vectors {
		row := v.Slice()
		if dates[i].After(cutoff) {
			testX = append(testX, row)
			testY = append(testY, ts.Labels[i])
		} else {
			trainX = append(trainX, row)
			trainY = append(trainY, ts.Labels[i])
		}
	}
	if len(testX) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: not enough data for test split", contracts.ErrInsufficientData)
	}
	if len(trainX) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: not enough data for train split", contracts.ErrInsufficientData)
	}
	return trainX, trainY, testX, testY, nil
}

func scoreRegressor(reg model.Regressor, testX [][]float64, testY []float64) (float64, error) {
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

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
