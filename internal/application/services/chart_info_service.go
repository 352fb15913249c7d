package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/provider"
)

// ChartInfoService es el UpdateSource del multiplexer: combina los puntos
// guardados, el proveedor de gráficos y la cotización en vivo.
type ChartInfoService struct {
	provider interfaces.ChartProvider
	store    interfaces.ChartPointStore
	group    singleflight.Group
	now      func() time.Time
}

func NewChartInfoService(provider interfaces.ChartProvider, store interfaces.ChartPointStore) *ChartInfoService {
	return &ChartInfoService{
		provider: provider,
		store:    store,
		now:      time.Now,
	}
}

// Update implementa interfaces.UpdateSource
func (s *ChartInfoService) Update(ctx context.Context, key entities.SubscriptionKey, latest *entities.MarketInfo) (*entities.ChartInfo, error) {
	if latest != nil {
		return s.applyLatest(ctx, key, latest)
	}
	return s.refresh(ctx, key)
}

// refresh usa los puntos guardados si están al día; si no, los trae del proveedor
func (s *ChartInfoService) refresh(ctx context.Context, key entities.SubscriptionKey) (*entities.ChartInfo, error) {
	stored := s.stored(ctx, key)
	if !s.isOutdated(key, stored) {
		return s.build(key, stored)
	}

	points, err := s.fetch(ctx, key)
	if err != nil {
		if errors.Is(err, provider.ErrNoData) {
			return nil, fmt.Errorf("%w: %s: %v", entities.ErrNoChartInfo, key, err)
		}
		// lo guardado sólo sirve si aún cae dentro de la ventana; si no, el error sigue siendo transitorio
		if info, buildErr := s.build(key, stored); buildErr == nil {
			logging.Warn(ctx, "Chart provider failed, serving stored points", logging.Fields{
				logging.FieldKey:    key.String(),
				logging.FieldPoints: len(stored),
				logging.FieldError:  err.Error(),
			})
			return info, nil
		}
		return nil, err
	}
	return s.build(key, points)
}

// applyLatest agrega la cotización en vivo como último punto sin tocar el upstream
func (s *ChartInfoService) applyLatest(ctx context.Context, key entities.SubscriptionKey, latest *entities.MarketInfo) (*entities.ChartInfo, error) {
	stored := s.stored(ctx, key)
	if len(stored) == 0 {
		return nil, nil
	}

	last := stored[len(stored)-1]
	if latest.Timestamp <= last.Timestamp {
		return nil, nil
	}

	points := make([]entities.ChartPoint, len(stored), len(stored)+1)
	copy(points, stored)
	points = append(points, entities.ChartPoint{
		Value:     latest.Rate,
		Volume:    decimal.Zero,
		Timestamp: latest.Timestamp,
	})
	return s.build(key, points)
}

// stored trata un error del store como ausencia de datos
func (s *ChartInfoService) stored(ctx context.Context, key entities.SubscriptionKey) []entities.ChartPoint {
	points, err := s.store.GetChartPoints(ctx, key)
	if err != nil {
		logging.Warn(ctx, "Failed to read stored chart points", logging.Fields{
			logging.FieldKey:   key.String(),
			logging.FieldError: err.Error(),
		})
		return nil
	}
	return points
}

func (s *ChartInfoService) isOutdated(key entities.SubscriptionKey, points []entities.ChartPoint) bool {
	if len(points) == 0 {
		return true
	}
	last := time.Unix(points[len(points)-1].Timestamp, 0)
	return s.now().Sub(last) > key.Kind.Resolution()
}

// fetch deduplica llamadas concurrentes por clave y persiste el resultado
func (s *ChartInfoService) fetch(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error) {
	v, err, shared := s.group.Do(key.String(), func() (interface{}, error) {
		points, err := s.provider.ChartPoints(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := s.store.SaveChartPoints(ctx, key, points); err != nil {
			logging.Warn(ctx, "Failed to save chart points", logging.Fields{
				logging.FieldKey:   key.String(),
				logging.FieldError: err.Error(),
			})
		}
		return points, nil
	})
	if err != nil {
		return nil, err
	}

	points := v.([]entities.ChartPoint)
	logging.Debug(ctx, "Fetched chart points", logging.Fields{
		logging.FieldKey:    key.String(),
		logging.FieldPoints: len(points),
		"shared":            shared,
	})
	return points, nil
}

// build recorta a la ventana [now - días, now] y arma el ChartInfo
func (s *ChartInfoService) build(key entities.SubscriptionKey, points []entities.ChartPoint) (*entities.ChartInfo, error) {
	now := s.now()
	from := now.Add(-key.Kind.Window()).Unix()
	to := now.Unix()

	window := make([]entities.ChartPoint, 0, len(points))
	for _, p := range points {
		if p.Timestamp >= from && p.Timestamp <= to {
			window = append(window, p)
		}
	}

	info := entities.NewChartInfo(key, window, now)
	if info == nil {
		return nil, fmt.Errorf("%w: %s: no points in window", entities.ErrNoChartInfo, key)
	}
	return info, nil
}
