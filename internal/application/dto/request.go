package dto

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"xrates-sync-service/internal/domain/entities"
)

const (
	DefaultTopMarketsLimit = 10
	MaxTopMarketsLimit     = 100
	DefaultCurrency        = "USD"
)

var ErrInvalidRequest = errors.New("invalid request")

// NewChartRequest arma la clave de suscripción desde las variables de ruta
func NewChartRequest(asset, currency, kind string) (entities.SubscriptionKey, error) {
	parsedKind, err := entities.ParseSeriesKind(kind)
	if err != nil {
		return entities.SubscriptionKey{}, err
	}
	key := entities.NewSubscriptionKey(asset, currency, parsedKind)
	if err := key.Validate(); err != nil {
		return entities.SubscriptionKey{}, err
	}
	return key, nil
}

// RateRequest identifica un par asset/moneda
type RateRequest struct {
	Asset    string
	Currency string
}

func NewRateRequest(asset, currency string) (*RateRequest, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if asset == "" || currency == "" {
		return nil, errors.Join(ErrInvalidRequest, errors.New("asset and currency are required"))
	}
	return &RateRequest{Asset: asset, Currency: currency}, nil
}

// HistoricalRequest agrega el instante pedido (segundos unix, no futuro)
type HistoricalRequest struct {
	RateRequest
	At time.Time
}

func NewHistoricalRequest(asset, currency, timestampParam string, now time.Time) (*HistoricalRequest, error) {
	rate, err := NewRateRequest(asset, currency)
	if err != nil {
		return nil, err
	}
	if timestampParam == "" {
		return nil, errors.Join(ErrInvalidRequest, errors.New("timestamp is required"))
	}
	ts, err := strconv.ParseInt(timestampParam, 10, 64)
	if err != nil || ts <= 0 {
		return nil, errors.Join(ErrInvalidRequest, errors.New("timestamp must be a positive unix timestamp in seconds"))
	}
	at := time.Unix(ts, 0)
	if at.After(now) {
		return nil, errors.Join(ErrInvalidRequest, errors.New("timestamp is in the future"))
	}
	return &HistoricalRequest{RateRequest: *rate, At: at}, nil
}

// TopMarketsRequest con defaults limit=10 y currency=USD
type TopMarketsRequest struct {
	Limit    int
	Currency string
}

func NewTopMarketsRequest(limitParam, currencyParam string) (*TopMarketsRequest, error) {
	req := &TopMarketsRequest{Limit: DefaultTopMarketsLimit, Currency: DefaultCurrency}

	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 || limit > MaxTopMarketsLimit {
			return nil, errors.Join(ErrInvalidRequest, errors.New("limit must be between 1 and 100"))
		}
		req.Limit = limit
	}
	if c := strings.TrimSpace(currencyParam); c != "" {
		req.Currency = strings.ToUpper(c)
	}
	return req, nil
}
