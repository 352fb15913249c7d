package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrates-sync-service/internal/domain/entities"
)

// failingCache falla en toda operación
type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingCache) Set(context.Context, string, string, time.Duration) error {
	return f.err
}
func (f failingCache) Delete(context.Context, string) error { return f.err }

func TestChartPointAdapter_RoundTrip(t *testing.T) {
	adapter := NewChartPointAdapter(NewMemoryCache())
	ctx := context.Background()
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)

	points, err := adapter.GetChartPoints(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, points)

	want := []entities.ChartPoint{
		{Value: decimal.RequireFromString("64000.12"), Volume: decimal.Zero, Timestamp: 100},
		{Value: decimal.RequireFromString("64010.50"), Volume: decimal.NewFromInt(3), Timestamp: 3700},
	}
	require.NoError(t, adapter.SaveChartPoints(ctx, key, want))

	got, err := adapter.GetChartPoints(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, want[0].Value.Equal(got[0].Value))
	assert.Equal(t, want[1].Timestamp, got[1].Timestamp)

	// otra clave no ve los puntos
	other, err := adapter.GetChartPoints(ctx, entities.NewSubscriptionKey("BTC", "USD", entities.KindWeek))
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestChartPointAdapter_BackendError(t *testing.T) {
	boom := errors.New("redis down")
	adapter := NewChartPointAdapter(failingCache{err: boom})
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)

	_, err := adapter.GetChartPoints(context.Background(), key)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, adapter.SaveChartPoints(context.Background(), key, nil), boom)
}

func TestChartPointAdapter_CorruptPayload(t *testing.T) {
	backend := NewMemoryCache()
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
	require.NoError(t, backend.Set(context.Background(), chartKey(key), "{not-json", time.Minute))

	_, err := NewChartPointAdapter(backend).GetChartPoints(context.Background(), key)
	assert.Error(t, err)
}

func TestMarketInfoAdapter(t *testing.T) {
	adapter := NewMarketInfoAdapter(NewMemoryCache(), time.Minute)
	ctx := context.Background()

	missing, err := adapter.Get(ctx, "ETH", "EUR")
	require.NoError(t, err)
	assert.Nil(t, missing)

	info := entities.NewMarketInfo("ETH", "EUR", decimal.RequireFromString("3100.5"), time.Unix(500, 0))
	require.NoError(t, adapter.Set(ctx, info))

	got, err := adapter.Get(ctx, "ETH", "EUR")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, info.Rate.Equal(got.Rate))
	assert.Equal(t, int64(500), got.Timestamp)
}

func TestHistoricalRateAdapter(t *testing.T) {
	adapter := NewHistoricalRateAdapter(NewMemoryCache())
	ctx := context.Background()
	at := time.Unix(1_600_000_000, 0)

	rate := &entities.HistoricalRate{Asset: "BTC", Currency: "USD", Value: decimal.NewFromInt(10500), Timestamp: at.Unix()}
	require.NoError(t, adapter.SaveHistoricalRate(ctx, rate))

	got, err := adapter.GetHistoricalRate(ctx, "BTC", "USD", at)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, rate.Value.Equal(got.Value))

	none, err := adapter.GetHistoricalRate(ctx, "BTC", "USD", at.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, none)
}
