package coinmarketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/provider"
)

const (
	ServiceName    = "coinmarketcap"
	DefaultBaseURL = "https://pro-api.coinmarketcap.com/v1/cryptocurrency"
	apiKeyHeader   = "X-CMC_PRO_API_KEY"
	MaxLimit       = 100
)

type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
}

type listingsResponse struct {
	Data []listing `json:"data"`
}

type listing struct {
	Name    string           `json:"name"`
	Symbol  string           `json:"symbol"`
	CmcRank int              `json:"cmc_rank"`
	Quote   map[string]quote `json:"quote"`
}

type quote struct {
	Price            json.Number `json:"price"`
	Volume24h        json.Number `json:"volume_24h"`
	PercentChange24h json.Number `json:"percent_change_24h"`
	MarketCap        json.Number `json:"market_cap"`
	LastUpdated      time.Time   `json:"last_updated"`
}

// Provider implementa TopMarketsProvider sobre /listings/latest
type Provider struct {
	client     *provider.Client
	configured bool
}

func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Provider{
		client: provider.NewClient(provider.ClientConfig{
			Service:        ServiceName,
			BaseURL:        cfg.BaseURL,
			Timeout:        cfg.Timeout,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			Headers:        map[string]string{apiKeyHeader: cfg.APIKey},
		}),
		configured: cfg.APIKey != "",
	}
}

func (p *Provider) TopMarkets(ctx context.Context, limit int, currency string) ([]*entities.TopMarket, error) {
	if !p.configured {
		return nil, fmt.Errorf("%w: coinmarketcap api key missing", provider.ErrNotConfigured)
	}
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	cur := strings.ToUpper(currency)

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("convert", cur)

	var resp listingsResponse
	if err := p.client.GetJSON(ctx, "/listings/latest", "/listings/latest", query, &resp); err != nil {
		return nil, err
	}

	markets := make([]*entities.TopMarket, 0, len(resp.Data))
	for _, item := range resp.Data {
		q, ok := item.Quote[cur]
		if !ok {
			continue
		}
		rate, err := decimal.NewFromString(q.Price.String())
		if err != nil {
			continue
		}

		info := entities.NewMarketInfo(strings.ToUpper(item.Symbol), cur, rate, q.LastUpdated)
		info.Source = ServiceName
		info.Diff24h = toDecimal(q.PercentChange24h)
		info.Volume = toDecimal(q.Volume24h)
		info.MarketCap = toDecimal(q.MarketCap)

		markets = append(markets, &entities.TopMarket{
			Rank:       item.CmcRank,
			Asset:      info.Asset,
			Name:       item.Name,
			MarketInfo: info,
		})
	}
	return markets, nil
}

func toDecimal(n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
