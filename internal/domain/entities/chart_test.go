package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChartInfo(t *testing.T) {
	key := NewSubscriptionKey("BTC", "USD", KindHourly)
	now := time.Unix(1000, 0)

	assert.Nil(t, NewChartInfo(key, nil, now))

	points := []ChartPoint{
		{Value: decimal.NewFromInt(100), Timestamp: 100},
		{Value: decimal.NewFromInt(110), Timestamp: 200},
	}
	info := NewChartInfo(key, points, now)
	require.NotNil(t, info)

	assert.Equal(t, int64(100), info.StartTimestamp)
	assert.Equal(t, int64(200), info.EndTimestamp)
	assert.True(t, decimal.NewFromInt(10).Equal(info.Diff), info.Diff.String())

	last, ok := info.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(200), last.Timestamp)
}

func TestMarketInfo_IsExpired(t *testing.T) {
	now := time.Unix(10_000, 0)
	info := NewMarketInfo("BTC", "USD", decimal.NewFromInt(1), now.Add(-2*time.Minute))

	assert.True(t, info.IsExpired(now, time.Minute))
	assert.False(t, info.IsExpired(now, 5*time.Minute))

	var missing *MarketInfo
	assert.True(t, missing.IsExpired(now, time.Hour))
}
