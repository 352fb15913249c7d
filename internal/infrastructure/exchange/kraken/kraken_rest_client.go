package kraken

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/provider"
)

const (
	ServiceName      = "kraken"
	KrakenAPIBaseURL = "https://api.kraken.com/0/public"

	RequestsPerSecond = 1.0
	RequestBurst      = 15
)

// Config de los clientes REST y WebSocket de Kraken
type Config struct {
	RestURL              string
	WebSocketURL         string
	Timeout              time.Duration
	RequestTimeout       time.Duration
	MaxRetries           int
	MaxReconnectAttempts int
	SubscriberBuffer     int
}

// RestClient implementa LatestRateProvider sobre /Ticker
type RestClient struct {
	client *provider.Client
	now    func() time.Time
}

func NewRestClient(cfg Config) *RestClient {
	if cfg.RestURL == "" {
		cfg.RestURL = KrakenAPIBaseURL
	}
	return &RestClient{
		client: provider.NewClient(provider.ClientConfig{
			Service:        ServiceName,
			BaseURL:        cfg.RestURL,
			Timeout:        cfg.Timeout,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			// límite público de Kraken: burst de 15 y recarga de 1 por segundo
			RequestsPerSecond: RequestsPerSecond,
			Burst:             RequestBurst,
		}),
		now: time.Now,
	}
}

// LatestRate obtiene la última cotización de un par. Pares no soportados devuelven ErrNoData.
func (k *RestClient) LatestRate(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	restPair, err := toRestPair(asset, currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrNoData, err)
	}

	query := url.Values{}
	query.Set("pair", restPair)

	var resp TickerResponse
	if err := k.client.GetJSON(ctx, "/Ticker", "/Ticker", query, &resp); err != nil {
		return nil, err
	}

	if len(resp.Error) > 0 {
		msg := strings.Join(resp.Error, ", ")
		if strings.Contains(msg, "Unknown asset pair") {
			return nil, fmt.Errorf("%w: %s", provider.ErrNoData, msg)
		}
		return nil, fmt.Errorf("%w: %s", provider.ErrNonRetryable, msg)
	}

	// Kraken puede devolver el par con otro alias; se toma el primero
	for _, ticker := range resp.Result {
		info, err := ticker.ToMarketInfo(strings.ToUpper(asset), strings.ToUpper(currency), ServiceName, k.now())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrNonRetryable, err)
		}
		return info, nil
	}

	return nil, fmt.Errorf("%w: no ticker data for %s", provider.ErrNoData, restPair)
}
