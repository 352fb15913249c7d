package interfaces

import (
	"context"
	"time"

	"xrates-sync-service/internal/domain/entities"
)

// Cache es el backend clave/valor (memoria o redis)
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ChartPointStore persiste las series de puntos por clave.
// Get retorna (nil, nil) si no hay nada guardado.
type ChartPointStore interface {
	GetChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error)
	SaveChartPoints(ctx context.Context, key entities.SubscriptionKey, points []entities.ChartPoint) error
}

// HistoricalRateStore persiste cotizaciones históricas.
// Get retorna (nil, nil) si no existe.
type HistoricalRateStore interface {
	GetHistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error)
	SaveHistoricalRate(ctx context.Context, rate *entities.HistoricalRate) error
}
