package interfaces

import (
	"context"
	"time"

	"xrates-sync-service/internal/domain/entities"
)

// MarketInfoService define los casos de uso de cotizaciones (última, histórica, top)
type MarketInfoService interface {
	Latest(ctx context.Context, asset, currency string) (*entities.MarketInfo, error)
	Historical(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error)
	TopMarkets(ctx context.Context, limit int, currency string) ([]*entities.TopMarket, error)
}
