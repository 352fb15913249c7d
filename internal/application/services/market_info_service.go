package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/provider"
)

const DefaultExpirationInterval = 5 * time.Minute

// RateCache guarda la última cotización por par (cache.MarketInfoAdapter)
type RateCache interface {
	Get(ctx context.Context, asset, currency string) (*entities.MarketInfo, error)
	Set(ctx context.Context, info *entities.MarketInfo) error
}

// MarketInfoDeps agrupa las dependencias del servicio; Top puede ser nil
type MarketInfoDeps struct {
	Rates      RateCache
	Latest     []interfaces.LatestRateProvider // se prueban en orden
	Historical interfaces.HistoricalRateProvider
	History    interfaces.HistoricalRateStore
	Top        interfaces.TopMarketsProvider
	Expiration time.Duration
}

type marketInfoService struct {
	rates      RateCache
	latest     []interfaces.LatestRateProvider
	historical interfaces.HistoricalRateProvider
	history    interfaces.HistoricalRateStore
	top        interfaces.TopMarketsProvider
	expiration time.Duration
	group      singleflight.Group
	now        func() time.Time
}

func NewMarketInfoService(deps MarketInfoDeps) interfaces.MarketInfoService {
	return newMarketInfoService(deps)
}

func newMarketInfoService(deps MarketInfoDeps) *marketInfoService {
	if deps.Expiration <= 0 {
		deps.Expiration = DefaultExpirationInterval
	}
	return &marketInfoService{
		rates:      deps.Rates,
		latest:     deps.Latest,
		historical: deps.Historical,
		history:    deps.History,
		top:        deps.Top,
		expiration: deps.Expiration,
		now:        time.Now,
	}
}

// Latest sirve desde cache mientras no expire; si no, consulta los proveedores en orden.
// Si todos fallan y hay un valor vencido, se devuelve ese.
func (s *marketInfoService) Latest(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	asset, currency = strings.ToUpper(asset), strings.ToUpper(currency)

	cached, err := s.rates.Get(ctx, asset, currency)
	if err != nil {
		logging.Debug(ctx, "Market info cache read failed", logging.Fields{
			logging.FieldAsset:    asset,
			logging.FieldCurrency: currency,
			logging.FieldError:    err.Error(),
		})
		cached = nil
	}
	if cached != nil && !cached.IsExpired(s.now(), s.expiration) {
		return cached, nil
	}

	v, err, _ := s.group.Do("latest:"+asset+"/"+currency, func() (interface{}, error) {
		return s.fetchLatest(ctx, asset, currency)
	})
	if err != nil {
		if cached != nil {
			logging.Warn(ctx, "Serving expired market info", logging.Fields{
				logging.FieldAsset:    asset,
				logging.FieldCurrency: currency,
				"age_seconds":         cached.Age(s.now()).Seconds(),
				logging.FieldError:    err.Error(),
			})
			return cached, nil
		}
		return nil, err
	}
	return v.(*entities.MarketInfo), nil
}

func (s *marketInfoService) fetchLatest(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	if len(s.latest) == 0 {
		return nil, fmt.Errorf("%w: no latest rate provider", provider.ErrNotConfigured)
	}

	var errs []error
	for _, p := range s.latest {
		info, err := p.LatestRate(ctx, asset, currency)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.rates.Set(ctx, info); err != nil {
			logging.Warn(ctx, "Failed to cache market info", logging.Fields{
				logging.FieldAsset:    asset,
				logging.FieldCurrency: currency,
				logging.FieldError:    err.Error(),
			})
		}
		return info, nil
	}
	return nil, fmt.Errorf("latest rate %s/%s: %w", asset, currency, errors.Join(errs...))
}

// Historical busca primero en el store; en un miss consulta al proveedor y guarda
func (s *marketInfoService) Historical(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	asset, currency = strings.ToUpper(asset), strings.ToUpper(currency)
	at = at.Truncate(time.Second)

	stored, err := s.history.GetHistoricalRate(ctx, asset, currency, at)
	if err != nil {
		logging.Warn(ctx, "Historical rate store read failed", logging.Fields{
			logging.FieldAsset:    asset,
			logging.FieldCurrency: currency,
			logging.FieldError:    err.Error(),
		})
	}
	if stored != nil {
		return stored, nil
	}

	if s.historical == nil {
		return nil, fmt.Errorf("%w: no historical rate provider", provider.ErrNotConfigured)
	}

	sfKey := fmt.Sprintf("hist:%s/%s:%d", asset, currency, at.Unix())
	v, err, _ := s.group.Do(sfKey, func() (interface{}, error) {
		rate, err := s.historical.HistoricalRate(ctx, asset, currency, at)
		if err != nil {
			return nil, err
		}
		if err := s.history.SaveHistoricalRate(ctx, rate); err != nil {
			logging.Warn(ctx, "Failed to save historical rate", logging.Fields{
				logging.FieldAsset:    asset,
				logging.FieldCurrency: currency,
				logging.FieldError:    err.Error(),
			})
		}
		return rate, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entities.HistoricalRate), nil
}

func (s *marketInfoService) TopMarkets(ctx context.Context, limit int, currency string) ([]*entities.TopMarket, error) {
	if s.top == nil {
		return nil, fmt.Errorf("%w: no top markets provider", provider.ErrNotConfigured)
	}
	return s.top.TopMarkets(ctx, limit, strings.ToUpper(currency))
}
