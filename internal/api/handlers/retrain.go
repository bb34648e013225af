package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/retrain"
	"github.com/preppal/backend/pkg/logger"
)

// retrainTimeout bounds a background retrain run.
const retrainTimeout = 10 * time.Minute

// RetrainHandler triggers the retraining pipeline
type RetrainHandler struct {
	gate   *retrain.Gate
	logger *logger.Logger
}

// NewRetrainHandler creates a new retrain handler
func NewRetrainHandler(gate *retrain.Gate, log *logger.Logger) *RetrainHandler {
	return &RetrainHandler{
		gate:   gate,
		logger: log,
	}
}

// RetrainRequest points at an uploaded sales CSV
type RetrainRequest struct {
	NewDataPath string `json:"new_data_path"`
}

// Trigger validates the upload synchronously, then runs training in the
// background. The incumbent model keeps serving while the attempt runs.
// POST /api/retrain
func (h *RetrainHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req RetrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NewDataPath == "" {
		respondError(w, http.StatusBadRequest, "new_data_path is required")
		return
	}
	if _, err := os.Stat(req.NewDataPath); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("File not found: %s", req.NewDataPath))
		return
	}

	f, err := os.Open(req.NewDataPath)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Cannot open file: %s", req.NewDataPath))
		return
	}
	records, err := retrain.ParseCSV(f)
	f.Close()
	if err != nil {
		var sv *contracts.SchemaViolationError
		if errors.As(err, &sv) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"errors":  sv.Violations,
			})
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := retrain.ValidateUpload(records); err != nil {
		var sv *contracts.SchemaViolationError
		if errors.As(err, &sv) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"errors":  sv.Violations,
			})
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), retrainTimeout)
		defer cancel()

		decision, err := h.gate.Attempt(ctx, records)
		if err != nil {
			if errors.Is(err, contracts.ErrRetrainInProgress) {
				h.logger.Warn("Retrain attempt skipped: another attempt in progress")
				return
			}
			h.logger.WithError(err).Error("Retraining failed")
			return
		}
		h.logger.WithFields(map[string]interface{}{
			"attempt_id": decision.AttemptID,
			"deployed":   decision.Deployed,
			"old_mape":   decision.OldMAPE,
			"new_mape":   decision.NewMAPE,
		}).Info("Retrain attempt finished")
	}()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Retraining started. Check /api/health and /api/accuracy for updates.",
		"data_path": req.NewDataPath,
		"rows":      len(records),
	})
}
