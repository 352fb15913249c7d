package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/provider"
)

const (
	ServiceName    = "coingecko"
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	// margen para no descartar puntos que llegan unos segundos antes de la resolución
	thinningSlack = 180 * time.Second

	recentWindow = 10 * time.Minute
	olderWindow  = 2 * time.Hour
)

// Config de CoinGecko; CoinIDs mapea código de asset (BTC) a id de coingecko (bitcoin)
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	CoinIDs        map[string]string
}

// Provider implementa ChartProvider, LatestRateProvider e HistoricalRateProvider
type Provider struct {
	client  *provider.Client
	coinIDs map[string]string
	now     func() time.Time
}

func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["x-cg-demo-api-key"] = cfg.APIKey
	}

	ids := make(map[string]string, len(cfg.CoinIDs))
	for code, id := range cfg.CoinIDs {
		ids[strings.ToUpper(code)] = id
	}

	return &Provider{
		client: provider.NewClient(provider.ClientConfig{
			Service:        ServiceName,
			BaseURL:        cfg.BaseURL,
			Timeout:        cfg.Timeout,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			Headers:        headers,
		}),
		coinIDs: ids,
		now:     time.Now,
	}
}

func (p *Provider) coinID(asset string) (string, error) {
	id, ok := p.coinIDs[strings.ToUpper(asset)]
	if !ok {
		return "", fmt.Errorf("%w: unknown asset %s", provider.ErrNoData, asset)
	}
	return id, nil
}

// ChartPoints trae el doble de la ventana del tipo de gráfico y la adelgaza a la resolución
func (p *Provider) ChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error) {
	id, err := p.coinID(key.AssetID)
	if err != nil {
		return nil, err
	}

	days := key.Kind.Days()
	query := url.Values{}
	query.Set("vs_currency", strings.ToLower(key.CurrencyCode))
	query.Set("days", strconv.Itoa(days*2))
	if days >= 90 {
		query.Set("interval", "daily")
	}

	var resp marketChartResponse
	if err := p.client.GetJSON(ctx, "/coins/{id}/market_chart", "/coins/"+url.PathEscape(id)+"/market_chart", query, &resp); err != nil {
		return nil, err
	}

	points := thin(resp, key.Kind.Resolution(), key.Kind.PointCount(), days >= 90)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty chart for %s", provider.ErrNoData, key)
	}
	return points, nil
}

// thin conserva un punto por resolución. Si la respuesta ya es chica se conserva entera.
func thin(resp marketChartResponse, resolution time.Duration, pointCount int, withVolume bool) []entities.ChartPoint {
	keepAll := len(resp.Prices) <= pointCount*2
	step := int64((resolution - thinningSlack).Seconds())

	points := make([]entities.ChartPoint, 0, len(resp.Prices))
	var nextTs int64
	for i, entry := range resp.Prices {
		ts, value, ok := parseEntry(entry)
		if !ok {
			continue
		}
		if !keepAll && ts < nextTs {
			continue
		}
		nextTs = ts + step

		point := entities.ChartPoint{Value: value, Volume: decimal.Zero, Timestamp: ts}
		if withVolume && i < len(resp.TotalVolumes) {
			if _, volume, ok := parseEntry(resp.TotalVolumes[i]); ok {
				point.Volume = volume
			}
		}
		points = append(points, point)
	}
	return points
}

// parseEntry convierte [ms, valor] en (segundos, valor)
func parseEntry(entry []json.Number) (int64, decimal.Decimal, bool) {
	if len(entry) < 2 {
		return 0, decimal.Zero, false
	}
	ms, err := entry[0].Float64()
	if err != nil {
		return 0, decimal.Zero, false
	}
	value, err := decimal.NewFromString(entry[1].String())
	if err != nil {
		return 0, decimal.Zero, false
	}
	return int64(ms) / 1000, value, true
}

// LatestRate consulta /simple/price con cambio 24h, volumen y market cap
func (p *Provider) LatestRate(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	id, err := p.coinID(asset)
	if err != nil {
		return nil, err
	}
	cur := strings.ToLower(currency)

	query := url.Values{}
	query.Set("ids", id)
	query.Set("vs_currencies", cur)
	query.Set("include_24hr_change", "true")
	query.Set("include_24hr_vol", "true")
	query.Set("include_market_cap", "true")

	var resp simplePriceResponse
	if err := p.client.GetJSON(ctx, "/simple/price", "/simple/price", query, &resp); err != nil {
		return nil, err
	}

	values, ok := resp[id]
	if !ok {
		return nil, fmt.Errorf("%w: no price for %s/%s", provider.ErrNoData, asset, currency)
	}
	rate, ok := decimalField(values, cur)
	if !ok {
		return nil, fmt.Errorf("%w: no price for %s/%s", provider.ErrNoData, asset, currency)
	}

	info := entities.NewMarketInfo(strings.ToUpper(asset), strings.ToUpper(currency), rate, p.now())
	info.Source = ServiceName
	if v, ok := decimalField(values, cur+"_24h_change"); ok {
		info.Diff24h = v
	}
	if v, ok := decimalField(values, cur+"_24h_vol"); ok {
		info.Volume = v
	}
	if v, ok := decimalField(values, cur+"_market_cap"); ok {
		info.MarketCap = v
	}
	return info, nil
}

func decimalField(values map[string]json.Number, field string) (decimal.Decimal, bool) {
	raw, ok := values[field]
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// HistoricalRate busca el precio más cercano a at. La ventana de búsqueda es
// de ±10 minutos para instantes de las últimas 24h y de ±2 horas para el resto.
func (p *Provider) HistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	id, err := p.coinID(asset)
	if err != nil {
		return nil, err
	}

	window := olderWindow
	if p.now().Sub(at) < 24*time.Hour {
		window = recentWindow
	}

	query := url.Values{}
	query.Set("vs_currency", strings.ToLower(currency))
	query.Set("from", strconv.FormatInt(at.Add(-window).Unix(), 10))
	query.Set("to", strconv.FormatInt(at.Add(window).Unix(), 10))

	var resp marketChartResponse
	if err := p.client.GetJSON(ctx, "/coins/{id}/market_chart/range", "/coins/"+url.PathEscape(id)+"/market_chart/range", query, &resp); err != nil {
		return nil, err
	}

	target := at.Unix()
	var (
		best     decimal.Decimal
		bestDist int64 = math.MaxInt64
		found    bool
	)
	for _, entry := range resp.Prices {
		ts, value, ok := parseEntry(entry)
		if !ok {
			continue
		}
		dist := ts - target
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist, found = value, dist, true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no historical rate for %s/%s at %d", provider.ErrNoData, asset, currency, target)
	}

	return &entities.HistoricalRate{
		Asset:     strings.ToUpper(asset),
		Currency:  strings.ToUpper(currency),
		Value:     best,
		Timestamp: target,
	}, nil
}
