package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/monitor"
	"github.com/preppal/backend/pkg/logger"
)

// targetMAPE is the advertised accuracy goal in percent.
const targetMAPE = 20.0

// AccuracyHandler serves accuracy ledger summaries and intake
type AccuracyHandler struct {
	ledger    monitor.Ledger
	monitor   *monitor.Monitor
	driftMAPE float64
	logger    *logger.Logger
}

// NewAccuracyHandler creates a new accuracy handler
func NewAccuracyHandler(ledger monitor.Ledger, driftMAPE float64, log *logger.Logger) *AccuracyHandler {
	return &AccuracyHandler{
		ledger:    ledger,
		monitor:   monitor.New(ledger, driftMAPE, log.Zerolog()),
		driftMAPE: driftMAPE,
		logger:    log,
	}
}

// AccuracyRequest filters the ledger summary
type AccuracyRequest struct {
	ItemName     string `json:"item_name"`
	BusinessType string `json:"business_type"`
	NRecent      int    `json:"n_recent"`
}

// AccuracyResponse summarizes recent model performance
type AccuracyResponse struct {
	Success      bool                       `json:"success"`
	Message      string                     `json:"message,omitempty"`
	Period       string                     `json:"period,omitempty"`
	AvgMAPE      float64                    `json:"avg_mape,omitempty"`
	AvgMAE       float64                    `json:"avg_mae,omitempty"`
	AvgR2        float64                    `json:"avg_r2,omitempty"`
	Degraded     bool                       `json:"degraded"`
	AlertMessage string                     `json:"alert_message,omitempty"`
	TargetMAPE   float64                    `json:"target_mape,omitempty"`
	MeetsTarget  bool                       `json:"meets_target"`
	History      []contracts.AccuracyRecord `json:"history,omitempty"`
}

// Get summarizes the most recent accuracy evaluations
// POST /api/accuracy
func (h *AccuracyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AccuracyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NRecent <= 0 {
		req.NRecent = 7
	}

	var records []contracts.AccuracyRecord
	var err error
	if req.ItemName != "" || req.BusinessType != "" {
		records, err = h.ledger.Filter(ctx, req.ItemName, contracts.BusinessType(req.BusinessType), req.NRecent)
	} else {
		records, err = h.ledger.Recent(ctx, req.NRecent)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read accuracy ledger")
		respondError(w, http.StatusInternalServerError, "Failed to read accuracy ledger")
		return
	}

	if len(records) == 0 {
		respondJSON(w, http.StatusOK, AccuracyResponse{
			Success: true,
			Message: "No matching accuracy records yet. They are appended after observed daily sales are logged.",
		})
		return
	}

	var sumMAPE, sumMAE, sumR2 float64
	for _, rec := range records {
		sumMAPE += rec.MAPE
		sumMAE += rec.MAE
		sumR2 += rec.R2
	}
	n := float64(len(records))
	avgMAPE := math.Round(sumMAPE/n*100) / 100
	avgMAE := math.Round(sumMAE/n*100) / 100
	avgR2 := math.Round(sumR2/n*1000) / 1000

	resp := AccuracyResponse{
		Success:     true,
		Period:      periodLabel(len(records)),
		AvgMAPE:     avgMAPE,
		AvgMAE:      avgMAE,
		AvgR2:       avgR2,
		Degraded:    avgMAPE > h.driftMAPE,
		TargetMAPE:  targetMAPE,
		MeetsTarget: avgMAPE < targetMAPE,
		History:     records,
	}
	if resp.Degraded {
		resp.AlertMessage = "Model accuracy degraded - consider retraining."
	}
	respondJSON(w, http.StatusOK, resp)
}

func periodLabel(n int) string {
	return fmt.Sprintf("Last %d evaluations", n)
}

// LogAccuracyRequest carries one batch of realized sales with the
// predictions that were served for them.
type LogAccuracyRequest struct {
	Observed     []float64 `json:"observed"`
	Predicted    []float64 `json:"predicted"`
	ItemName     string    `json:"item_name"`
	BusinessType string    `json:"business_type"`
}

// LogAccuracyResponse returns the ledger record appended for the batch
type LogAccuracyResponse struct {
	Success bool                    `json:"success"`
	Record  contracts.AccuracyRecord `json:"record"`
}

// Log evaluates observed sales against their predictions and appends the
// result to the accuracy ledger
// POST /api/log-accuracy
func (h *AccuracyHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req LogAccuracyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Observed) == 0 || len(req.Predicted) == 0 {
		respondError(w, http.StatusBadRequest, "observed and predicted must be non-empty")
		return
	}
	if len(req.Observed) != len(req.Predicted) {
		respondError(w, http.StatusBadRequest, "observed and predicted must have the same length")
		return
	}
	bt := contracts.BusinessType(req.BusinessType)
	if req.BusinessType != "" && !bt.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown business_type %q", req.BusinessType))
		return
	}

	rec, err := h.monitor.Log(r.Context(), req.Observed, req.Predicted, bt, req.ItemName)
	if err != nil {
		h.logger.WithError(err).Error("Failed to log accuracy batch")
		respondError(w, http.StatusInternalServerError, "Failed to log accuracy batch")
		return
	}

	respondJSON(w, http.StatusOK, LogAccuracyResponse{Success: true, Record: rec})
}
