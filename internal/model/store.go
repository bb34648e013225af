package model

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/preppal/backend/internal/contracts"
)

// Health is the serving state of the live model.
type Health int32

const (
	// Degraded means no usable model is loaded; requests answer from the
	// fallback cache.
	Degraded Health = iota
	// Healthy means the live model serves forecasts.
	Healthy
)

func (h Health) String() string {
	if h == Healthy {
		return "healthy"
	}
	return "degraded"
}

// Store owns the live model reference. The reference is swapped atomically:
// readers always observe a complete artifact with its matching encoders,
// never a partial combination. State transitions are restricted to
// Healthy->Degraded on failed load and Degraded->Healthy on deploy.
type Store struct {
	path    string
	current atomic.Pointer[Artifact]
	state   atomic.Int32
	log     zerolog.Logger
}

// NewStore creates an empty, degraded store bound to an artifact path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "model.store").Logger(),
	}
}

// Path returns the artifact path backing the store.
func (s *Store) Path() string { return s.path }

// LoadFromDisk loads the persisted artifact. Failure leaves or puts the
// store in the degraded state and reports the error.
func (s *Store) LoadFromDisk() error {
	a, err := LoadArtifact(s.path)
	if err != nil {
		s.state.Store(int32(Degraded))
		s.log.Error().Err(err).Str("path", s.path).Msg("model load failed")
		return err
	}
	s.current.Store(a)
	s.state.Store(int32(Healthy))
	s.log.Info().
		Str("version", a.Version).
		Str("kind", a.Kind).
		Float64("test_mape", a.TestMAPE).
		Msg("model loaded")
	return nil
}

// Current returns the live artifact, or ErrModelUnavailable when degraded.
func (s *Store) Current() (*Artifact, error) {
	if Health(s.state.Load()) != Healthy {
		return nil, contracts.ErrModelUnavailable
	}
	a := s.current.Load()
	if a == nil {
		return nil, contracts.ErrModelUnavailable
	}
	return a, nil
}

// Healthy reports whether the store is serving.
func (s *Store) Healthy() bool {
	return Health(s.state.Load()) == Healthy
}

// State returns the current health state.
func (s *Store) State() Health {
	return Health(s.state.Load())
}

// Deploy persists the artifact and swaps the live reference. A successful
// deploy is the only transition from degraded back to healthy.
func (s *Store) Deploy(a *Artifact) error {
	if a == nil {
		return fmt.Errorf("deploy: nil artifact")
	}
	if err := a.Save(s.path); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	s.current.Store(a)
	s.state.Store(int32(Healthy))
	s.log.Info().
		Str("version", a.Version).
		Str("kind", a.Kind).
		Float64("test_mape", a.TestMAPE).
		Msg("model deployed")
	return nil
}
