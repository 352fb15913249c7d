package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/provider"
)

var (
	testNow = time.Unix(1_700_000_000, 0)
	hourKey = entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
)

func newChartService(p *fakeChartProvider, store *memoryChartStore) *ChartInfoService {
	s := NewChartInfoService(p, store)
	s.now = func() time.Time { return testNow }
	return s
}

func TestChartInfoService_Tick(t *testing.T) {
	now := testNow.Unix()
	fresh := []entities.ChartPoint{point(now-7200, 100), point(now-600, 110)}
	outdated := []entities.ChartPoint{point(now-10800, 90), point(now-7200, 95)}
	fetched := []entities.ChartPoint{point(now-5*86400, 1), point(now-3600, 100), point(now-60, 120)}

	tests := []struct {
		name        string
		stored      []entities.ChartPoint
		providerErr error
		wantCalls   int32
		wantErr     error
		wantFirst   int64
		wantLast    int64
		wantDiff    string
	}{
		{"fresh store skips provider", fresh, nil, 0, nil, 100, 110, "10"},
		{"empty store fetches and windows", nil, nil, 1, nil, 100, 120, "20"},
		{"outdated store fetches", outdated, nil, 1, nil, 100, 120, "20"},
		{"provider no data is permanent", nil, provider.ErrNoData, 1, entities.ErrNoChartInfo, 0, 0, ""},
		{"provider no data with stored points is permanent", outdated, provider.ErrNoData, 1, entities.ErrNoChartInfo, 0, 0, ""},
		{"transient error serves stored points", outdated, errUpstream, 1, nil, 90, 95, "5.55555555555556"},
		{"transient error without stored points", nil, errUpstream, 1, errUpstream, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryChartStore()
			if tt.stored != nil {
				store.points[hourKey] = tt.stored
			}
			p := &fakeChartProvider{points: fetched, err: tt.providerErr}

			info, err := newChartService(p, store).Update(context.Background(), hourKey, nil)

			assert.Equal(t, tt.wantCalls, p.calls.Load())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, info)
				return
			}
			require.NoError(t, err)
			first, last := info.Points[0], info.Points[len(info.Points)-1]
			assert.Equal(t, tt.wantFirst, first.Value.IntPart())
			assert.Equal(t, tt.wantLast, last.Value.IntPart())
			assert.Equal(t, tt.wantDiff, info.Diff.String())
			assert.Equal(t, first.Timestamp, info.StartTimestamp)
			assert.Equal(t, last.Timestamp, info.EndTimestamp)
		})
	}
}

func TestChartInfoService_FetchSavesToStore(t *testing.T) {
	store := newMemoryChartStore()
	p := &fakeChartProvider{points: []entities.ChartPoint{point(testNow.Unix()-60, 5)}}

	_, err := newChartService(p, store).Update(context.Background(), hourKey, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.points[hourKey], 1)
}

func TestChartInfoService_StoredPointsOutsideWindowAreNotServed(t *testing.T) {
	store := newMemoryChartStore()
	store.points[hourKey] = []entities.ChartPoint{point(testNow.Unix()-10*86400, 1)}
	p := &fakeChartProvider{err: errUpstream}

	_, err := newChartService(p, store).Update(context.Background(), hourKey, nil)

	assert.ErrorIs(t, err, errUpstream)
	assert.NotErrorIs(t, err, entities.ErrNoChartInfo)
}

func TestChartInfoService_ConcurrentTicksShareOneFetch(t *testing.T) {
	store := newMemoryChartStore()
	p := &fakeChartProvider{points: []entities.ChartPoint{point(testNow.Unix()-60, 5)}, delay: 50 * time.Millisecond}
	svc := newChartService(p, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Update(context.Background(), hourKey, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, p.calls.Load(), int32(8))
}

func TestChartInfoService_LiveRate(t *testing.T) {
	now := testNow.Unix()
	stored := []entities.ChartPoint{point(now-3600, 100), point(now-600, 110)}

	tests := []struct {
		name      string
		stored    []entities.ChartPoint
		latestTs  int64
		wantNil   bool
		wantCount int
	}{
		{"newer rate is appended", stored, now - 10, false, 3},
		{"older rate is ignored", stored, now - 1200, true, 0},
		{"same timestamp is ignored", stored, now - 600, true, 0},
		{"no stored points", nil, now, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryChartStore()
			if tt.stored != nil {
				store.points[hourKey] = tt.stored
			}
			p := &fakeChartProvider{}
			latest := &entities.MarketInfo{Asset: "BTC", Currency: "USD", Rate: decimal.NewFromInt(121), Timestamp: tt.latestTs}

			info, err := newChartService(p, store).Update(context.Background(), hourKey, latest)

			require.NoError(t, err)
			assert.Equal(t, int32(0), p.calls.Load())
			if tt.wantNil {
				assert.Nil(t, info)
				return
			}
			require.Len(t, info.Points, tt.wantCount)
			assert.Equal(t, "121", info.Points[tt.wantCount-1].Value.String())
			assert.Equal(t, tt.latestTs, info.EndTimestamp)
			assert.Equal(t, "21", info.Diff.String())
			// el punto en vivo no se persiste
			assert.Len(t, store.points[hourKey], 2)
		})
	}
}

func TestChartInfoService_StoreReadErrorFallsBackToProvider(t *testing.T) {
	store := newMemoryChartStore()
	store.readErr = fmt.Errorf("disk full")
	p := &fakeChartProvider{points: []entities.ChartPoint{point(testNow.Unix()-60, 5)}}

	info, err := newChartService(p, store).Update(context.Background(), hourKey, nil)

	require.NoError(t, err)
	assert.Len(t, info.Points, 1)
	assert.Equal(t, int32(1), p.calls.Load())
}
