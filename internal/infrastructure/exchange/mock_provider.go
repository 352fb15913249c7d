package exchange

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/provider"
)

const mockSource = "mock"

// MockProvider genera series y cotizaciones sintéticas para desarrollo (development.mock_mode).
// Implementa ChartProvider, LatestRateProvider, HistoricalRateProvider y TopMarketsProvider.
type MockProvider struct {
	mu         sync.RWMutex
	basePrices map[string]decimal.Decimal // BTC/USD -> precio base
	variance   float64                    // variación relativa máxima por punto
	now        func() time.Time
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		basePrices: map[string]decimal.Decimal{
			"BTC/USD": decimal.NewFromInt(65000),
			"ETH/USD": decimal.NewFromInt(3200),
			"LTC/USD": decimal.NewFromInt(95),
			"XRP/USD": decimal.RequireFromString("0.52"),
			"BTC/EUR": decimal.NewFromInt(59500),
			"BTC/CHF": decimal.NewFromInt(58200),
			"ETH/EUR": decimal.NewFromInt(2900),
			"ETH/CHF": decimal.NewFromInt(2850),
		},
		variance: 0.02,
		now:      time.Now,
	}
}

// AddPair agrega un par con su precio base
func (m *MockProvider) AddPair(asset, currency string, basePrice decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.basePrices[mockPair(asset, currency)] = basePrice
}

func (m *MockProvider) SetVariance(variance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variance = variance
}

func mockPair(asset, currency string) string {
	return strings.ToUpper(asset) + "/" + strings.ToUpper(currency)
}

func (m *MockProvider) base(asset, currency string) (decimal.Decimal, float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	price, ok := m.basePrices[mockPair(asset, currency)]
	if !ok {
		return decimal.Zero, 0, fmt.Errorf("%w: mock has no pair %s", provider.ErrNoData, mockPair(asset, currency))
	}
	return price, m.variance, nil
}

// seeded produce un generador determinístico por clave e instante, para que
// dos lecturas del mismo punto den el mismo valor
func seeded(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func vary(base decimal.Decimal, variance float64, r *rand.Rand) decimal.Decimal {
	factor := 1 + (r.Float64()*2-1)*variance
	return base.Mul(decimal.NewFromFloat(factor)).Round(8)
}

// ChartPoints genera PointCount puntos alineados a la resolución del tipo
func (m *MockProvider) ChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error) {
	basePrice, variance, err := m.base(key.AssetID, key.CurrencyCode)
	if err != nil {
		return nil, err
	}

	resolution := int64(key.Kind.Resolution().Seconds())
	count := key.Kind.PointCount()
	last := m.now().Unix() / resolution * resolution

	points := make([]entities.ChartPoint, 0, count)
	for i := count - 1; i >= 0; i-- {
		ts := last - int64(i)*resolution
		r := seeded(key.String(), fmt.Sprint(ts))
		points = append(points, entities.ChartPoint{
			Value:     vary(basePrice, variance, r),
			Volume:    decimal.NewFromInt(int64(r.Intn(1000) + 1)),
			Timestamp: ts,
		})
	}

	logging.Debug(ctx, "MockProvider: generated chart points", logging.Fields{
		logging.FieldKey:    key.String(),
		logging.FieldPoints: len(points),
	})
	return points, nil
}

func (m *MockProvider) LatestRate(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	basePrice, variance, err := m.base(asset, currency)
	if err != nil {
		return nil, err
	}

	now := m.now()
	r := seeded(mockPair(asset, currency), fmt.Sprint(now.UnixNano()))
	info := entities.NewMarketInfo(strings.ToUpper(asset), strings.ToUpper(currency), vary(basePrice, variance, r), now)
	info.Source = mockSource
	info.Diff24h = decimal.NewFromFloat((r.Float64()*2 - 1) * variance * 100).Round(4)
	info.Volume = decimal.NewFromInt(int64(r.Intn(100000)))
	info.MarketCap = basePrice.Mul(decimal.NewFromInt(19_000_000))
	return info, nil
}

func (m *MockProvider) HistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	basePrice, variance, err := m.base(asset, currency)
	if err != nil {
		return nil, err
	}
	r := seeded(mockPair(asset, currency), fmt.Sprint(at.Unix()))
	return &entities.HistoricalRate{
		Asset:     strings.ToUpper(asset),
		Currency:  strings.ToUpper(currency),
		Value:     vary(basePrice, variance, r),
		Timestamp: at.Unix(),
	}, nil
}

// TopMarkets ordena los pares de la moneda pedida por precio base
func (m *MockProvider) TopMarkets(ctx context.Context, limit int, currency string) ([]*entities.TopMarket, error) {
	cur := strings.ToUpper(currency)

	m.mu.RLock()
	var assets []string
	for pair := range m.basePrices {
		if strings.HasSuffix(pair, "/"+cur) {
			assets = append(assets, strings.TrimSuffix(pair, "/"+cur))
		}
	}
	m.mu.RUnlock()

	sort.Slice(assets, func(i, j int) bool {
		bi, _, _ := m.base(assets[i], cur)
		bj, _, _ := m.base(assets[j], cur)
		return bi.GreaterThan(bj)
	})
	if limit > 0 && len(assets) > limit {
		assets = assets[:limit]
	}

	markets := make([]*entities.TopMarket, 0, len(assets))
	for i, asset := range assets {
		info, err := m.LatestRate(ctx, asset, cur)
		if err != nil {
			continue
		}
		markets = append(markets, &entities.TopMarket{Rank: i + 1, Asset: asset, Name: asset, MarketInfo: info})
	}
	return markets, nil
}
