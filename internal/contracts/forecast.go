package contracts

import "time"

// BusinessType is the closed set of supported business kinds.
type BusinessType string

const (
	BusinessRestaurant BusinessType = "Restaurant"
	BusinessCafe       BusinessType = "Cafe"
	BusinessBakery     BusinessType = "Bakery"
)

// BusinessTypes returns the vocabulary in its stable encoding order.
func BusinessTypes() []BusinessType {
	return []BusinessType{BusinessBakery, BusinessCafe, BusinessRestaurant}
}

// Valid reports whether the business type is part of the vocabulary.
func (b BusinessType) Valid() bool {
	switch b {
	case BusinessRestaurant, BusinessCafe, BusinessBakery:
		return true
	}
	return false
}

// Weather is the closed set of supported weather conditions.
type Weather string

const (
	WeatherClear Weather = "Clear"
	WeatherRainy Weather = "Rainy"
)

// Valid reports whether the weather value is part of the vocabulary.
func (w Weather) Valid() bool {
	return w == WeatherClear || w == WeatherRainy
}

// Category is the closed item-category vocabulary established at training time.
type Category string

const (
	CategoryMainMeal  Category = "main_meal"
	CategorySideDish  Category = "side_dish"
	CategoryBeverage  Category = "beverage"
	CategoryPastry    Category = "pastry"
	CategoryDessert   Category = "dessert"
	CategoryBakery    Category = "bakery"
	CategoryLightMeal Category = "light_meal"
)

// Categories returns the vocabulary in its stable encoding order.
func Categories() []Category {
	return []Category{
		CategoryBakery, CategoryBeverage, CategoryDessert,
		CategoryLightMeal, CategoryMainMeal, CategoryPastry, CategorySideDish,
	}
}

// ItemProfile describes a menu item for feature derivation.
// Immutable once derived for a request.
type ItemProfile struct {
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Complexity int      `json:"preparation_complexity"` // 1-5
	Known      bool     `json:"known"`                  // true if from the curated lookup
}

// HorizonDays is the forecast horizon length.
const HorizonDays = 7

// ForecastContext carries the forward-looking inputs for one 7-day request.
// WeatherSequence and HolidayFlags must both have exactly HorizonDays entries.
type ForecastContext struct {
	BusinessType    BusinessType `json:"business_type"`
	Price           float64      `json:"price"`
	ShelfLifeHours  float64      `json:"shelf_life_hours"`
	StartingDate    time.Time    `json:"starting_date"`
	WeatherSequence []Weather    `json:"weather_sequence"`
	HolidayFlags    []int        `json:"holiday_flags"`
}

// SalesRecord is one past daily observation for an (item, business) pair.
type SalesRecord struct {
	Date              time.Time    `json:"date"`
	ItemName          string       `json:"item_name"`
	BusinessType      BusinessType `json:"business_type"`
	Price             float64      `json:"price"`
	ShelfLifeHours    float64      `json:"shelf_life_hours"`
	QuantityAvailable float64      `json:"quantity_available"`
	QuantitySold      float64      `json:"quantity_sold"`
	CustomerDemand    float64      `json:"customer_demand"`
	WasteQuantity     float64      `json:"waste_quantity"`
	Weather           Weather      `json:"weather_condition"`
	HolidayFlag       int          `json:"holiday_flag"`
}

// ConfidenceLevel buckets a confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// ForecastDay is one day of a 7-day forecast. Immutable after creation.
type ForecastDay struct {
	Date                time.Time       `json:"date"`
	DayIndex            int             `json:"day_index"` // 0-6
	PredictedDemand     int             `json:"predicted_demand"`
	RecommendedQuantity int             `json:"recommended_quantity"`
	Confidence          ConfidenceLevel `json:"confidence"`
	ConfidenceScore     float64         `json:"confidence_score"`
	Weather             Weather         `json:"weather"`
	IsHoliday           bool            `json:"is_holiday"`
	IsNewItem           bool            `json:"is_new_item"`
	Explanation         string          `json:"explanation"`
}

// WeekForecast is the unit of forecast output: exactly HorizonDays entries,
// date-ordered starting at the request's starting date.
type WeekForecast struct {
	ItemName     string        `json:"item_name"`
	BusinessType BusinessType  `json:"business_type"`
	Days         []ForecastDay `json:"days"`
	ModelVersion string        `json:"model_version"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// AccuracyRecord is one appended entry of the accuracy ledger.
type AccuracyRecord struct {
	ID           int64        `json:"id,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	MAE          float64      `json:"mae"`
	MAPE         float64      `json:"mape"` // percent
	RMSE         float64      `json:"rmse"`
	R2           float64      `json:"r2"`
	NPredictions int          `json:"n_predictions"`
	BusinessType BusinessType `json:"business_type,omitempty"`
	ItemName     string       `json:"item_name,omitempty"`
}

// RecentPerformance aggregates the most recent ledger entries.
type RecentPerformance struct {
	AvgMAPE float64 `json:"avg_mape"`
	AvgMAE  float64 `json:"avg_mae"`
	AvgR2   float64 `json:"avg_r2"`
	Window  int     `json:"window"`
}

// RetrainDecision is the outcome of one retrain attempt.
type RetrainDecision struct {
	AttemptID   string    `json:"attempt_id"`
	OldMAPE     float64   `json:"old_mape"`
	NewMAPE     float64   `json:"new_mape"`
	Improvement float64   `json:"improvement"` // old - new
	Deployed    bool      `json:"deployed"`
	Reason      string    `json:"reason"`
	DecidedAt   time.Time `json:"decided_at"`
}

// FallbackKey builds the cache key for an (item, business) pair.
func FallbackKey(itemName string, businessType BusinessType) string {
	return itemName + "::" + string(businessType)
}

// FallbackEntry holds the most recent successful forecast for a key,
// or a degraded-mode placeholder when none exists.
type FallbackEntry struct {
	Fallback       bool          `json:"fallback"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	Forecast       *WeekForecast `json:"forecast,omitempty"`
	StoredAt       time.Time     `json:"stored_at"`
}
