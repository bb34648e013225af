package handlers

import (
	"net/http"
	"time"

	"github.com/preppal/backend/internal/model"
)

// HealthHandler reports service and model health
type HealthHandler struct {
	store   *model.Store
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *model.Store, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

// Get returns the current health snapshot
// GET /api/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":       "degraded",
		"model_loaded": false,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"version":      h.version,
	}

	if artifact, err := h.store.Current(); err == nil {
		resp["status"] = "healthy"
		resp["model_loaded"] = true
		resp["model_version"] = artifact.Version
		resp["trained_at"] = artifact.TrainedAt.Format(time.RFC3339)
	} else {
		resp["model_error"] = err.Error()
	}

	respondJSON(w, http.StatusOK, resp)
}
