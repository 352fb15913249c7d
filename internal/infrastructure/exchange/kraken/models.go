package kraken

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"xrates-sync-service/internal/domain/entities"
)

// TickerResponse es la respuesta de /0/public/Ticker
type TickerResponse struct {
	Error  []string              `json:"error"`
	Result map[string]TickerData `json:"result"`
}

// TickerData comparte formato entre REST y WebSocket.
// "o" es un string en REST y [hoy, últimas 24h] en WebSocket.
type TickerData struct {
	Ask             []string        `json:"a"`
	Bid             []string        `json:"b"`
	LastTradeClosed []string        `json:"c"` // [precio, volumen del lote]
	Volume          []string        `json:"v"` // [hoy, últimas 24h]
	Low             []string        `json:"l"`
	High            []string        `json:"h"`
	OpeningPrice    json.RawMessage `json:"o"`
}

// LastPrice es el precio del último trade cerrado
func (t *TickerData) LastPrice() (decimal.Decimal, error) {
	if len(t.LastTradeClosed) == 0 {
		return decimal.Zero, ErrInvalidTickerData
	}
	return decimal.NewFromString(t.LastTradeClosed[0])
}

// Volume24h retorna el volumen de las últimas 24h (o el de hoy si no viene)
func (t *TickerData) Volume24h() decimal.Decimal {
	if len(t.Volume) == 0 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(t.Volume[len(t.Volume)-1])
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Open retorna el precio de apertura; en WebSocket se usa el de las últimas 24h
func (t *TickerData) Open() (decimal.Decimal, bool) {
	if len(t.OpeningPrice) == 0 {
		return decimal.Zero, false
	}

	var single string
	if err := json.Unmarshal(t.OpeningPrice, &single); err == nil {
		d, err := decimal.NewFromString(single)
		return d, err == nil
	}

	var pair []string
	if err := json.Unmarshal(t.OpeningPrice, &pair); err == nil && len(pair) > 0 {
		d, err := decimal.NewFromString(pair[len(pair)-1])
		return d, err == nil
	}
	return decimal.Zero, false
}

// ToMarketInfo convierte el ticker en MarketInfo. Diff24h se calcula contra la apertura.
func (t *TickerData) ToMarketInfo(asset, currency, source string, at time.Time) (*entities.MarketInfo, error) {
	rate, err := t.LastPrice()
	if err != nil {
		return nil, err
	}

	info := entities.NewMarketInfo(asset, currency, rate, at)
	info.Source = source
	info.Volume = t.Volume24h()
	if open, ok := t.Open(); ok && !open.IsZero() {
		info.Diff24h = rate.Sub(open).Div(open).Mul(decimal.NewFromInt(100))
	}
	return info, nil
}
