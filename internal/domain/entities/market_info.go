package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketInfo es la última cotización conocida de un par asset/moneda
type MarketInfo struct {
	Asset     string          `json:"asset"`
	Currency  string          `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	Diff24h   decimal.Decimal `json:"diff_24h"`
	Volume    decimal.Decimal `json:"volume"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source,omitempty"`
}

func NewMarketInfo(asset, currency string, rate decimal.Decimal, timestamp time.Time) *MarketInfo {
	return &MarketInfo{
		Asset:     asset,
		Currency:  currency,
		Rate:      rate,
		Timestamp: timestamp.Unix(),
	}
}

// Age es el tiempo transcurrido desde la cotización
func (m *MarketInfo) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(m.Timestamp, 0))
}

// IsExpired indica si la cotización superó el intervalo de expiración
func (m *MarketInfo) IsExpired(now time.Time, expiration time.Duration) bool {
	if m == nil {
		return true
	}
	return m.Age(now) > expiration
}

// HistoricalRate es la cotización de un par en un instante pasado
type HistoricalRate struct {
	Asset     string          `json:"asset"`
	Currency  string          `json:"currency"`
	Value     decimal.Decimal `json:"value"`
	Timestamp int64           `json:"timestamp"`
}

// TopMarket es una entrada del ranking por capitalización
type TopMarket struct {
	Rank       int         `json:"rank"`
	Asset      string      `json:"asset"`
	Name       string      `json:"name"`
	MarketInfo *MarketInfo `json:"market_info"`
}
