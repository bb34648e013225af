package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/internal/fallback"
	"github.com/preppal/backend/internal/forecast"
	"github.com/preppal/backend/internal/history"
	"github.com/preppal/backend/internal/model"
	"github.com/preppal/backend/pkg/logger"
)

// ForecastHandler handles forecast-related API endpoints
// ⭐ SSOT: forecast API handlers live in this struct only
type ForecastHandler struct {
	generator *forecast.Generator
	fallback  *fallback.Cache
	history   history.Provider
	store     *model.Store
	logger    *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	gen *forecast.Generator,
	fb *fallback.Cache,
	hist history.Provider,
	store *model.Store,
	log *logger.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		generator: gen,
		fallback:  fb,
		history:   hist,
		store:     store,
		logger:    log,
	}
}

// WeekForecastRequest represents a 7-day forecast request
type WeekForecastRequest struct {
	ItemName        string   `json:"item_name"`
	BusinessType    string   `json:"business_type"`
	Price           float64  `json:"price"`
	ShelfLifeHours  float64  `json:"shelf_life_hours"`
	StartingDate    string   `json:"starting_date"`
	WeatherForecast []string `json:"weather_forecast"`
	HolidayFlags    []int    `json:"holiday_flags"`
}

// WeekForecastResponse wraps a forecast together with the fallback flag
type WeekForecastResponse struct {
	Success        bool                    `json:"success"`
	Fallback       bool                    `json:"fallback"`
	FallbackReason string                  `json:"fallback_reason,omitempty"`
	Forecast       *contracts.WeekForecast `json:"forecast,omitempty"`
}

func (req *WeekForecastRequest) toContext() (string, contracts.ForecastContext, error) {
	name := strings.TrimSpace(req.ItemName)
	if name == "" {
		return "", contracts.ForecastContext{}, contracts.InvalidInputError("item_name cannot be empty")
	}

	start, err := time.Parse("2006-01-02", req.StartingDate)
	if err != nil {
		return "", contracts.ForecastContext{}, contracts.InvalidInputError("starting_date must be a valid YYYY-MM-DD date")
	}

	weather := make([]contracts.Weather, len(req.WeatherForecast))
	for i, w := range req.WeatherForecast {
		weather[i] = contracts.Weather(w)
	}

	fc := contracts.ForecastContext{
		BusinessType:    contracts.BusinessType(req.BusinessType),
		Price:           req.Price,
		ShelfLifeHours:  req.ShelfLifeHours,
		StartingDate:    start,
		WeatherSequence: weather,
		HolidayFlags:    req.HolidayFlags,
	}
	return name, fc, nil
}

// PredictWeek generates a 7-day forecast
// POST /api/predict-week
func (h *ForecastHandler) PredictWeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req WeekForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name, fc, err := req.toContext()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.store.Healthy() {
		respondJSON(w, http.StatusOK, h.fallbackResponse(ctx, name, fc.BusinessType))
		return
	}

	window, err := h.history.Window(ctx, name, fc.BusinessType, history.DefaultWindowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history window")
		respondError(w, http.StatusInternalServerError, "Failed to load sales history")
		return
	}

	result, err := h.generator.PredictWeek(ctx, name, fc, window)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, contracts.ErrModelUnavailable):
			respondJSON(w, http.StatusOK, h.fallbackResponse(ctx, name, fc.BusinessType))
		default:
			h.logger.WithError(err).Error("Forecast generation failed")
			respondError(w, http.StatusInternalServerError, "Forecast generation failed")
		}
		return
	}

	h.fallback.Put(ctx, result)
	respondJSON(w, http.StatusOK, WeekForecastResponse{
		Success:  true,
		Forecast: result,
	})
}

// SinglePredictRequest represents a single-day forecast request
type SinglePredictRequest struct {
	ItemName       string  `json:"item_name"`
	BusinessType   string  `json:"business_type"`
	Date           string  `json:"date"`
	Price          float64 `json:"price"`
	ShelfLifeHours float64 `json:"shelf_life_hours"`
	Weather        string  `json:"weather"`
	IsHoliday      int     `json:"is_holiday"`
}

// SinglePredictResponse is the day-one slice of a full forecast
type SinglePredictResponse struct {
	Success             bool                      `json:"success"`
	Fallback            bool                      `json:"fallback"`
	Date                string                    `json:"date"`
	PredictedDemand     int                       `json:"predicted_demand"`
	RecommendedQuantity int                       `json:"recommended_quantity"`
	Confidence          contracts.ConfidenceLevel `json:"confidence"`
	ConfidenceScore     float64                   `json:"confidence_score"`
	Explanation         string                    `json:"explanation"`
	IsNewItem           bool                      `json:"is_new_item"`
}

// PredictSingle generates a single-day forecast by running the weekly
// generator and returning day one
// POST /api/predict
func (h *ForecastHandler) PredictSingle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SinglePredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Weather == "" {
		req.Weather = string(contracts.WeatherClear)
	}
	if req.IsHoliday != 0 && req.IsHoliday != 1 {
		respondError(w, http.StatusBadRequest, "is_holiday must be 0 or 1")
		return
	}

	// Expand to a week-shaped request: the single day's conditions carry
	// forward, later holidays default to 0.
	weather := make([]string, contracts.HorizonDays)
	flags := make([]int, contracts.HorizonDays)
	for i := range weather {
		weather[i] = req.Weather
	}
	flags[0] = req.IsHoliday

	weekReq := WeekForecastRequest{
		ItemName:        req.ItemName,
		BusinessType:    req.BusinessType,
		Price:           req.Price,
		ShelfLifeHours:  req.ShelfLifeHours,
		StartingDate:    req.Date,
		WeatherForecast: weather,
		HolidayFlags:    flags,
	}

	name, fc, err := weekReq.toContext()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.store.Healthy() {
		respondJSON(w, http.StatusOK, h.fallbackResponse(ctx, name, fc.BusinessType))
		return
	}

	window, err := h.history.Window(ctx, name, fc.BusinessType, history.DefaultWindowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history window")
		respondError(w, http.StatusInternalServerError, "Failed to load sales history")
		return
	}

	result, err := h.generator.PredictWeek(ctx, name, fc, window)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, contracts.ErrModelUnavailable):
			respondJSON(w, http.StatusOK, h.fallbackResponse(ctx, name, fc.BusinessType))
		default:
			h.logger.WithError(err).Error("Forecast generation failed")
			respondError(w, http.StatusInternalServerError, "Forecast generation failed")
		}
		return
	}

	h.fallback.Put(ctx, result)
	day1 := result.Days[0]
	respondJSON(w, http.StatusOK, SinglePredictResponse{
		Success:             true,
		Date:                day1.Date.Format("2006-01-02"),
		PredictedDemand:     day1.PredictedDemand,
		RecommendedQuantity: day1.RecommendedQuantity,
		Confidence:          day1.Confidence,
		ConfidenceScore:     day1.ConfidenceScore,
		Explanation:         day1.Explanation,
		IsNewItem:           day1.IsNewItem,
	})
}

// RiskAlertRequest represents a waste-risk check
type RiskAlertRequest struct {
	PredictedDemand int `json:"predicted_demand"`
	PlannedQuantity int `json:"planned_quantity"`
}

// RiskAlert classifies the waste risk of a production plan
// POST /api/risk-alert
func (h *ForecastHandler) RiskAlert(w http.ResponseWriter, r *http.Request) {
	var req RiskAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PredictedDemand < 0 || req.PlannedQuantity < 0 {
		respondError(w, http.StatusBadRequest, "Quantities must be non-negative")
		return
	}

	assessment := forecast.AssessWasteRisk(req.PredictedDemand, req.PlannedQuantity)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"risk_level":       assessment.Level,
		"waste_percentage": assessment.WastePercentage,
		"expected_waste":   assessment.ExpectedWaste,
		"message":          assessment.Message,
		"color":            assessment.Color,
	})
}

// RecommendRequest represents a production recommendation request
type RecommendRequest struct {
	PredictedDemand int `json:"predicted_demand"`
	CurrentPlan     int `json:"current_plan"`
}

// Recommend advises how to adjust a production plan
// POST /api/recommend
func (h *ForecastHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PredictedDemand < 0 || req.CurrentPlan < 0 {
		respondError(w, http.StatusBadRequest, "Quantities must be non-negative")
		return
	}

	rec := forecast.Recommend(req.PredictedDemand, req.CurrentPlan)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":              true,
		"recommended_quantity": rec.RecommendedQuantity,
		"action":               rec.Action,
		"reason":               rec.Reason,
		"explanation":          rec.Explanation,
	})
}

func (h *ForecastHandler) fallbackResponse(ctx context.Context, itemName string, businessType contracts.BusinessType) WeekForecastResponse {
	entry := h.fallback.Get(ctx, itemName, businessType)
	return WeekForecastResponse{
		Success:        true,
		Fallback:       true,
		FallbackReason: entry.FallbackReason,
		Forecast:       entry.Forecast,
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
