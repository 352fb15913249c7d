package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"xrates-sync-service/internal/domain/entities"
)

var errUpstream = errors.New("upstream unavailable")

type fakeChartProvider struct {
	calls  atomic.Int32
	points []entities.ChartPoint
	err    error
	delay  time.Duration
}

func (f *fakeChartProvider) ChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

type memoryChartStore struct {
	mu      sync.Mutex
	points  map[entities.SubscriptionKey][]entities.ChartPoint
	saves   int
	readErr error
}

func newMemoryChartStore() *memoryChartStore {
	return &memoryChartStore{points: make(map[entities.SubscriptionKey][]entities.ChartPoint)}
}

func (s *memoryChartStore) GetChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.points[key], nil
}

func (s *memoryChartStore) SaveChartPoints(ctx context.Context, key entities.SubscriptionKey, points []entities.ChartPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.points[key] = points
	return nil
}

func point(ts int64, value int64) entities.ChartPoint {
	return entities.ChartPoint{Value: decimal.NewFromInt(value), Volume: decimal.Zero, Timestamp: ts}
}

type fakeRateProvider struct {
	calls atomic.Int32
	info  *entities.MarketInfo
	err   error
}

func (f *fakeRateProvider) LatestRate(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

type memoryRateCache struct {
	mu    sync.Mutex
	infos map[string]*entities.MarketInfo
}

func newMemoryRateCache() *memoryRateCache {
	return &memoryRateCache{infos: make(map[string]*entities.MarketInfo)}
}

func (c *memoryRateCache) Get(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infos[asset+"/"+currency], nil
}

func (c *memoryRateCache) Set(ctx context.Context, info *entities.MarketInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos[info.Asset+"/"+info.Currency] = info
	return nil
}

type fakeHistoricalProvider struct {
	calls atomic.Int32
	err   error
}

func (f *fakeHistoricalProvider) HistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &entities.HistoricalRate{Asset: asset, Currency: currency, Value: decimal.NewFromInt(42), Timestamp: at.Unix()}, nil
}

type memoryHistoryStore struct {
	mu    sync.Mutex
	rates map[string]*entities.HistoricalRate
}

func newMemoryHistoryStore() *memoryHistoryStore {
	return &memoryHistoryStore{rates: make(map[string]*entities.HistoricalRate)}
}

func historyKey(asset, currency string, ts int64) string {
	return asset + "/" + currency + "/" + time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func (s *memoryHistoryStore) GetHistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rates[historyKey(asset, currency, at.Unix())], nil
}

func (s *memoryHistoryStore) SaveHistoricalRate(ctx context.Context, rate *entities.HistoricalRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[historyKey(rate.Asset, rate.Currency, rate.Timestamp)] = rate
	return nil
}

type fakeTopProvider struct {
	markets []*entities.TopMarket
}

func (f *fakeTopProvider) TopMarkets(ctx context.Context, limit int, currency string) ([]*entities.TopMarket, error) {
	return f.markets, nil
}
