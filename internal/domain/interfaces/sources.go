package interfaces

import (
	"context"

	"xrates-sync-service/internal/domain/entities"
)

// UpdateSource produce el ChartInfo de una clave.
//
// latest es nil cuando la llamada proviene del timer; si no, trae la cotización
// recibida por el feed en vivo. Resultados:
//   - (info, nil): hay actualización para publicar
//   - (nil, nil): nada nuevo
//   - error que envuelve entities.ErrNoChartInfo: la clave no tiene datos (permanente)
//   - cualquier otro error: transitorio, se reintenta en el próximo tick
type UpdateSource interface {
	Update(ctx context.Context, key entities.SubscriptionKey, latest *entities.MarketInfo) (*entities.ChartInfo, error)
}

// LiveRateFeed emite cotizaciones en vivo de un par. El canal se cierra al cancelar ctx.
type LiveRateFeed interface {
	Subscribe(ctx context.Context, asset, currency string) (<-chan *entities.MarketInfo, error)
}
