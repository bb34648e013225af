// Package fallback keeps the last successful forecast per (item,
// business) pair so the API can still answer while no model is live.
package fallback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/preppal/backend/internal/contracts"
	"github.com/preppal/backend/pkg/redis"
)

// Degraded-mode reasons surfaced to clients.
const (
	ReasonStale = "Model temporarily unavailable - showing last valid forecast"
	ReasonCold  = "Model unavailable. Please use recent sales history as a guide."
)

// Cache is an in-process store of last-known-good forecasts with an
// optional Redis write-through so restarts keep their fallbacks.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*contracts.WeekForecast

	remote *redis.Cache
	log    zerolog.Logger
}

// New creates a fallback cache. remote may be nil.
func New(remote *redis.Cache, log zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*contracts.WeekForecast),
		remote:  remote,
		log:     log.With().Str("component", "fallback.cache").Logger(),
	}
}

// Put stores a successful forecast, unconditionally replacing any
// earlier entry for the same pair.
func (c *Cache) Put(ctx context.Context, fc *contracts.WeekForecast) {
	key := contracts.FallbackKey(fc.ItemName, fc.BusinessType)

	c.mu.Lock()
	c.entries[key] = fc
	c.mu.Unlock()

	if c.remote != nil {
		rkey := redis.ForecastKey(fc.ItemName, string(fc.BusinessType))
		if err := c.remote.Set(ctx, rkey, fc, redis.TTLDaily); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("fallback write-through failed")
		}
	}
}

// Get returns the degraded-mode answer for a pair: the last valid
// forecast when one exists, otherwise a placeholder directing the
// caller to its own sales history.
func (c *Cache) Get(ctx context.Context, itemName string, businessType contracts.BusinessType) *contracts.FallbackEntry {
	key := contracts.FallbackKey(itemName, businessType)

	c.mu.RLock()
	fc, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok && c.remote != nil {
		var remote contracts.WeekForecast
		rkey := redis.ForecastKey(itemName, string(businessType))
		if found, err := c.remote.Get(ctx, rkey, &remote); err == nil && found {
			fc, ok = &remote, true
			c.mu.Lock()
			c.entries[key] = fc
			c.mu.Unlock()
		}
	}

	if !ok {
		return &contracts.FallbackEntry{
			Fallback:       true,
			FallbackReason: ReasonCold,
			StoredAt:       time.Now().UTC(),
		}
	}
	return &contracts.FallbackEntry{
		Fallback:       true,
		FallbackReason: ReasonStale,
		Forecast:       fc,
		StoredAt:       time.Now().UTC(),
	}
}

// Len reports how many pairs have a cached forecast.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
