package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the serving and retraining paths.
var (
	// ErrInvalidInput marks a malformed request shape. Always recoverable
	// by the caller correcting its input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable means no live model is loaded. The serving path
	// answers from the fallback cache instead of failing the request.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrInsufficientData means there is not enough data to proceed
	// (empty test split, no historical window).
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSchemaMismatch means the feature schema or encoder vocabulary of a
	// model artifact disagrees with the runtime. Never recoverable.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrRetrainInProgress means a retrain attempt is already running for
	// the incumbent model.
	ErrRetrainInProgress = errors.New("retrain already in progress")
)

// InvalidInputError wraps ErrInvalidInput with a field-level message.
func InvalidInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// SchemaViolationError carries the itemized violations of an uploaded
// retraining dataset. The retrain path aborts with the model unchanged.
type SchemaViolationError struct {
	Violations []string
}

func (e *SchemaViolationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

// ComputationError marks a regression collaborator failure mid-sequence.
// Surfaced to the caller as a hard failure.
type ComputationError struct {
	DayIndex int
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("prediction failed at day %d: %v", e.DayIndex, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
