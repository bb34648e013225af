package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preppal/backend/internal/contracts"
)

func seedRecord(day int, item string, biz contracts.BusinessType) contracts.SalesRecord {
	return contracts.SalesRecord{
		Date:           time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		ItemName:       item,
		BusinessType:   biz,
		CustomerDemand: float64(30 + day),
	}
}

func TestMemoryStore_Window(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var records []contracts.SalesRecord
	for day := 0; day < 40; day++ {
		records = append(records, seedRecord(day, "Croissant", contracts.BusinessCafe))
	}
	// Out-of-order append: the window must still come back date-sorted.
	records[0], records[39] = records[39], records[0]
	require.NoError(t, s.Append(ctx, records))

	window, err := s.Window(ctx, "Croissant", contracts.BusinessCafe, 30)
	require.NoError(t, err)
	require.Len(t, window, 30)
	assert.Equal(t, 40.0, window[0].CustomerDemand, "tail of the series, oldest first")
	assert.Equal(t, 69.0, window[29].CustomerDemand)
	for i := 1; i < len(window); i++ {
		assert.False(t, window[i].Date.Before(window[i-1].Date))
	}

	// n <= 0 falls back to the default window size.
	window, err = s.Window(ctx, "Croissant", contracts.BusinessCafe, 0)
	require.NoError(t, err)
	assert.Len(t, window, DefaultWindowDays)
}

func TestMemoryStore_ColdStartFallsBackToBusiness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, []contracts.SalesRecord{
		seedRecord(0, "Croissant", contracts.BusinessCafe),
		seedRecord(1, "Croissant", contracts.BusinessCafe),
		seedRecord(0, "Baguette", contracts.BusinessBakery),
	}))

	// Unknown item: the window aggregates over the business type instead.
	window, err := s.Window(ctx, "Dragonfruit Tart", contracts.BusinessCafe, 30)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "Croissant", window[0].ItemName)

	// Unknown item and business: empty window, not an error.
	window, err = s.Window(ctx, "Dragonfruit Tart", contracts.BusinessRestaurant, 30)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestMemoryStore_LoadAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	all, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, s.Append(ctx, []contracts.SalesRecord{
		seedRecord(0, "Croissant", contracts.BusinessCafe),
	}))
	require.NoError(t, s.Append(ctx, []contracts.SalesRecord{
		seedRecord(1, "Croissant", contracts.BusinessCafe),
	}))

	all, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// LoadAll hands out a copy, not the backing slice.
	all[0].ItemName = "mutated"
	fresh, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Croissant", fresh[0].ItemName)
}
