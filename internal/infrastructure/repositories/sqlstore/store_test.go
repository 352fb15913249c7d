package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrates-sync-service/internal/domain/entities"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "xrates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_ChartPointsReplace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)

	points, err := store.GetChartPoints(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, points)

	first := []entities.ChartPoint{
		{Value: decimal.RequireFromString("100.5"), Volume: decimal.Zero, Timestamp: 200},
		{Value: decimal.RequireFromString("99.25"), Volume: decimal.Zero, Timestamp: 100},
	}
	require.NoError(t, store.SaveChartPoints(ctx, key, first))

	got, err := store.GetChartPoints(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(100), got[0].Timestamp, "rows are ordered by timestamp")
	assert.True(t, decimal.RequireFromString("99.25").Equal(got[0].Value))

	second := []entities.ChartPoint{{Value: decimal.NewFromInt(1), Timestamp: 300}}
	require.NoError(t, store.SaveChartPoints(ctx, key, second))

	got, err = store.GetChartPoints(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(300), got[0].Timestamp)
}

func TestStore_ChartPointsIsolatedPerKey(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	hourly := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
	weekly := entities.NewSubscriptionKey("BTC", "USD", entities.KindWeek)

	require.NoError(t, store.SaveChartPoints(ctx, hourly, []entities.ChartPoint{{Value: decimal.NewFromInt(1), Timestamp: 1}}))
	require.NoError(t, store.SaveChartPoints(ctx, weekly, []entities.ChartPoint{{Value: decimal.NewFromInt(2), Timestamp: 1}}))

	got, err := store.GetChartPoints(ctx, hourly)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, decimal.NewFromInt(1).Equal(got[0].Value))
}

func TestStore_HistoricalRate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Unix(1_650_000_000, 0)

	none, err := store.GetHistoricalRate(ctx, "ETH", "EUR", at)
	require.NoError(t, err)
	assert.Nil(t, none)

	rate := &entities.HistoricalRate{Asset: "ETH", Currency: "EUR", Value: decimal.RequireFromString("2800.75"), Timestamp: at.Unix()}
	require.NoError(t, store.SaveHistoricalRate(ctx, rate))
	require.NoError(t, store.SaveHistoricalRate(ctx, rate))

	got, err := store.GetHistoricalRate(ctx, "ETH", "EUR", at)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, rate.Value.Equal(got.Value))
	assert.NoError(t, store.Ping(ctx))
}
