package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preppal/backend/pkg/config"
	"github.com/preppal/backend/pkg/logger"
	"github.com/preppal/backend/pkg/redis"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "console"})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_LocalTokenBucket(t *testing.T) {
	// Without a Redis limiter the middleware enforces a process-local
	// token bucket with a burst of 100.
	h := rateLimitMiddleware(nil, testLogger())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict-week", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	limited := 0
	for i := 0; i < 150; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict-week", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Greater(t, limited, 0, "burst beyond the bucket must be rejected")
}

func TestRateLimitMiddleware_DisabledRedisAllowsAll(t *testing.T) {
	// A limiter over a disabled Redis client admits every request rather
	// than failing closed.
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	limiter := redis.NewRateLimiter(client, "test")

	h := rateLimitMiddleware(limiter, testLogger())(okHandler())
	for i := 0; i < 150; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict-week", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLimitConfigFor(t *testing.T) {
	assert.Equal(t, redis.RetrainRateLimit, limitConfigFor("/api/retrain"))
	assert.Equal(t, redis.ForecastRateLimit, limitConfigFor("/api/predict-week"))
	assert.Equal(t, redis.ForecastRateLimit, limitConfigFor("/api/predict"))
	assert.Equal(t, redis.APIRateLimit, limitConfigFor("/api/accuracy"))
	assert.Equal(t, redis.APIRateLimit, limitConfigFor("/health"))
}
