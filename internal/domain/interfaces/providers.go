package interfaces

import (
	"context"
	"time"

	"xrates-sync-service/internal/domain/entities"
)

// ChartProvider obtiene la serie completa de un gráfico desde el upstream
type ChartProvider interface {
	ChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error)
}

// LatestRateProvider obtiene la última cotización de un par
type LatestRateProvider interface {
	LatestRate(ctx context.Context, asset, currency string) (*entities.MarketInfo, error)
}

// HistoricalRateProvider obtiene la cotización de un par en un instante dado
type HistoricalRateProvider interface {
	HistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error)
}

// TopMarketsProvider obtiene el ranking de mercados por capitalización
type TopMarketsProvider interface {
	TopMarkets(ctx context.Context, limit int, currency string) ([]*entities.TopMarket, error)
}
