package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/features"
)

// Artifact is the persisted, versioned model reference: a fitted regressor
// together with the encoder vocabularies and feature schema it was trained
// against. A forecast request must always observe a model and its matching
// encoders as one unit.
type Artifact struct {
	Version            string            `json:"version"`
	Kind               string            `json:"kind"`
	Ridge              *Ridge            `json:"ridge,omitempty"`
	Segmented          *Segmented        `json:"segmented,omitempty"`
	Ensemble           *Ensemble         `json:"ensemble,omitempty"`
	FeatureCount       int               `json:"feature_count"`
	FeatureNames       []string          `json:"feature_names"`
	Encoders           features.Encoders `json:"encoders"`
	EncoderFingerprint string            `json:"encoder_fingerprint"`
	TrainedAt          time.Time         `json:"trained_at"`
	TestMAPE           float64           `json:"test_mape"`
}

// NewArtifact wraps a fitted regressor into a versioned artifact.
func NewArtifact(reg Regressor, enc features.Encoders, testMAPE float64) (*Artifact, error) {
	a := &Artifact{
		Version:            uuid.NewString(),
		FeatureCount:       features.FeatureCount,
		FeatureNames:       features.Names(),
		Encoders:           enc,
		EncoderFingerprint: enc.Fingerprint(),
		TrainedAt:          time.Now().UTC(),
		TestMAPE:           testMAPE,
	}
	switch r := reg.(type) {
	case *Ridge:
		a.Kind = KindRidge
		a.Ridge = r
	case *Segmented:
		a.Kind = KindSegmented
		a.Segmented = r
	case *Ensemble:
		a.Kind = KindEnsemble
		a.Ensemble = r
	default:
		return nil, fmt.Errorf("unsupported regressor type %T", reg)
	}
	return a, nil
}

// Regressor returns the artifact's fitted regressor.
func (a *Artifact) Regressor() (Regressor, error) {
	switch a.Kind {
	case KindRidge:
		if a.Ridge == nil {
			return nil, fmt.Errorf("artifact %s: missing ridge payload", a.Version)
		}
		return a.Ridge, nil
	case KindSegmented:
		if a.Segmented == nil {
			return nil, fmt.Errorf("artifact %s: missing segmented payload", a.Version)
		}
		return a.Segmented, nil
	case KindEnsemble:
		if a.Ensemble == nil {
			return nil, fmt.Errorf("artifact %s: missing ensemble payload", a.Version)
		}
		return a.Ensemble, nil
	}
	return nil, fmt.Errorf("artifact %s: unknown kind %q", a.Version, a.Kind)
}

// validate enforces the training/inference schema contract. Any drift is a
// loud failure, never silent reindexing.
func (a *Artifact) validate() error {
	if a.FeatureCount != features.FeatureCount {
		return fmt.Errorf("%w: artifact has %d features, runtime schema has %d",
			contracts.ErrSchemaMismatch, a.FeatureCount, features.FeatureCount)
	}
	runtime := features.Names()
	if len(a.FeatureNames) != len(runtime) {
		return fmt.Errorf("%w: artifact names %d, runtime %d",
			contracts.ErrSchemaMismatch, len(a.FeatureNames), len(runtime))
	}
	for i, name := range runtime {
		if a.FeatureNames[i] != name {
			return fmt.Errorf("%w: feature %d is %q, runtime expects %q",
				contracts.ErrSchemaMismatch, i, a.FeatureNames[i], name)
		}
	}
	if a.EncoderFingerprint != a.Encoders.Fingerprint() {
		return fmt.Errorf("%w: encoder fingerprint drift", contracts.ErrSchemaMismatch)
	}
	if _, err := a.Regressor(); err != nil {
		return err
	}
	return nil
}

// Save writes the artifact atomically (temp file plus rename).
func (a *Artifact) Save(path string) error {
	if err := a.validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads and validates an artifact from disk.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact: %v", contracts.ErrModelUnavailable, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", contracts.ErrModelUnavailable, err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}
