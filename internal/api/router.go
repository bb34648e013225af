package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/preppal/backend/internal/api/handlers"
	"github.com/preppal/backend/pkg/logger"
	"github.com/preppal/backend/pkg/redis"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing is configured in this function only
func NewRouter(
	forecastHandler *handlers.ForecastHandler,
	accuracyHandler *handlers.AccuracyHandler,
	retrainHandler *handlers.RetrainHandler,
	healthHandler *handlers.HealthHandler,
	limiter *redis.RateLimiter,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthHandler.Get).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", healthHandler.Get).Methods("GET")

	// Forecast endpoints
	api.HandleFunc("/predict-week", forecastHandler.PredictWeek).Methods("POST")
	api.HandleFunc("/predict", forecastHandler.PredictSingle).Methods("POST")
	api.HandleFunc("/risk-alert", forecastHandler.RiskAlert).Methods("POST")
	api.HandleFunc("/recommend", forecastHandler.Recommend).Methods("POST")

	// Monitoring and lifecycle endpoints
	api.HandleFunc("/accuracy", accuracyHandler.Get).Methods("POST")
	api.HandleFunc("/log-accuracy", accuracyHandler.Log).Methods("POST")
	api.HandleFunc("/retrain", retrainHandler.Trigger).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(rateLimitMiddleware(limiter, log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies a request budget. Forecast generation is
// CPU-bound, so a burst of clients degrades everyone. When a Redis-backed
// limiter is supplied the budget is shared across instances, with a
// per-endpoint window; without one (or when Redis errors) a process-local
// token bucket takes over.
func rateLimitMiddleware(remote *redis.RateLimiter, log *logger.Logger) mux.MiddlewareFunc {
	local := rate.NewLimiter(rate.Limit(50), 100)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed := true
			if remote != nil {
				var err error
				allowed, _, err = remote.Allow(r.Context(), limitConfigFor(r.URL.Path))
				if err != nil {
					log.WithError(err).Warn("Redis rate limit check failed, using local limiter")
					allowed = local.Allow()
				}
			} else {
				allowed = local.Allow()
			}
			if !allowed {
				log.WithField("path", r.URL.Path).Warn("Request rate limited")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitConfigFor maps a request path to its rate limit window.
func limitConfigFor(path string) redis.RateLimitConfig {
	switch {
	case strings.HasPrefix(path, "/api/retrain"):
		return redis.RetrainRateLimit
	case strings.HasPrefix(path, "/api/predict"):
		return redis.ForecastRateLimit
	}
	return redis.APIRateLimit
}
