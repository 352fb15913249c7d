package cache

import (
	"context"
	"fmt"
	"time"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/domain/interfaces"
)

// ChartPointAdapter implementa interfaces.ChartPointStore sobre cualquier interfaces.Cache
// usando la clave chart:<ASSET>:<CUR>:<kind>. El TTL es la ventana del tipo de gráfico.
type ChartPointAdapter struct {
	backend interfaces.Cache
}

func NewChartPointAdapter(backend interfaces.Cache) *ChartPointAdapter {
	return &ChartPointAdapter{backend: backend}
}

func chartKey(key entities.SubscriptionKey) string {
	return fmt.Sprintf("chart:%s:%s:%s", key.AssetID, key.CurrencyCode, key.Kind)
}

func (a *ChartPointAdapter) GetChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error) {
	points, found, err := getJSON[[]entities.ChartPoint](ctx, a.backend, chartKey(key))
	if err != nil || !found {
		return nil, err
	}
	return *points, nil
}

func (a *ChartPointAdapter) SaveChartPoints(ctx context.Context, key entities.SubscriptionKey, points []entities.ChartPoint) error {
	return setJSON(ctx, a.backend, chartKey(key), points, key.Kind.Window())
}

// MarketInfoAdapter guarda la última cotización por par con clave rate:<ASSET>:<CUR>
type MarketInfoAdapter struct {
	backend interfaces.Cache
	ttl     time.Duration
}

func NewMarketInfoAdapter(backend interfaces.Cache, ttl time.Duration) *MarketInfoAdapter {
	return &MarketInfoAdapter{backend: backend, ttl: ttl}
}

func rateKey(asset, currency string) string {
	return fmt.Sprintf("rate:%s:%s", asset, currency)
}

// Get retorna (nil, nil) si no hay cotización guardada
func (a *MarketInfoAdapter) Get(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	info, found, err := getJSON[entities.MarketInfo](ctx, a.backend, rateKey(asset, currency))
	if err != nil || !found {
		return nil, err
	}
	return info, nil
}

func (a *MarketInfoAdapter) Set(ctx context.Context, info *entities.MarketInfo) error {
	return setJSON(ctx, a.backend, rateKey(info.Asset, info.Currency), info, a.ttl)
}

// HistoricalRateAdapter implementa interfaces.HistoricalRateStore sobre cache.
// Las cotizaciones históricas no cambian, por eso se guardan sin TTL.
type HistoricalRateAdapter struct {
	backend interfaces.Cache
}

func NewHistoricalRateAdapter(backend interfaces.Cache) *HistoricalRateAdapter {
	return &HistoricalRateAdapter{backend: backend}
}

func historicalKey(asset, currency string, ts int64) string {
	return fmt.Sprintf("hist:%s:%s:%d", asset, currency, ts)
}

func (a *HistoricalRateAdapter) GetHistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	rate, found, err := getJSON[entities.HistoricalRate](ctx, a.backend, historicalKey(asset, currency, at.Unix()))
	if err != nil || !found {
		return nil, err
	}
	return rate, nil
}

func (a *HistoricalRateAdapter) SaveHistoricalRate(ctx context.Context, rate *entities.HistoricalRate) error {
	return setJSON(ctx, a.backend, historicalKey(rate.Asset, rate.Currency, rate.Timestamp), rate, 0)
}
