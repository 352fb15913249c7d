package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChartPointData es un punto del gráfico
// @Description Chart point (value and volume as decimal strings)
type ChartPointData struct {
	Timestamp int64           `json:"timestamp" example:"1700000000"`
	Value     decimal.Decimal `json:"value" swaggertype:"string" example:"65000.12"`
	Volume    decimal.Decimal `json:"volume" swaggertype:"string" example:"0"`
}

// ChartResponse es el snapshot de un gráfico
// @Description Chart info for a subscription key
type ChartResponse struct {
	Key            string           `json:"key" example:"BTC/USD/1h"`
	Asset          string           `json:"asset" example:"BTC"`
	Currency       string           `json:"currency" example:"USD"`
	Kind           string           `json:"kind" example:"1h"`
	StartTimestamp int64            `json:"start_timestamp" example:"1699827200"`
	EndTimestamp   int64            `json:"end_timestamp" example:"1700000000"`
	Diff           decimal.Decimal  `json:"diff" swaggertype:"string" example:"2.35"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Points         []ChartPointData `json:"points"`
}

// MarketInfoResponse es la última cotización de un par
// @Description Latest market info for an asset/currency pair
type MarketInfoResponse struct {
	Asset     string          `json:"asset" example:"BTC"`
	Currency  string          `json:"currency" example:"USD"`
	Rate      decimal.Decimal `json:"rate" swaggertype:"string" example:"65000.12"`
	Diff24h   decimal.Decimal `json:"diff_24h" swaggertype:"string" example:"-1.25"`
	Volume    decimal.Decimal `json:"volume" swaggertype:"string" example:"1000"`
	MarketCap decimal.Decimal `json:"market_cap" swaggertype:"string" example:"1200000000"`
	Timestamp int64           `json:"timestamp" example:"1700000000"`
	Source    string          `json:"source,omitempty" example:"coingecko"`
}

// HistoricalRateResponse es la cotización en un instante pasado
// @Description Historical rate at the requested timestamp
type HistoricalRateResponse struct {
	Asset     string          `json:"asset" example:"BTC"`
	Currency  string          `json:"currency" example:"USD"`
	Value     decimal.Decimal `json:"value" swaggertype:"string" example:"64000.5"`
	Timestamp int64           `json:"timestamp" example:"1699990000"`
}

// TopMarketData es una entrada del ranking
type TopMarketData struct {
	Rank   int                 `json:"rank" example:"1"`
	Asset  string              `json:"asset" example:"BTC"`
	Name   string              `json:"name" example:"Bitcoin"`
	Market *MarketInfoResponse `json:"market"`
}

// TopMarketsResponse
// @Description Top markets by capitalization
type TopMarketsResponse struct {
	Currency string          `json:"currency" example:"USD"`
	Markets  []TopMarketData `json:"markets"`
}

// KeySubscribers es una clave activa y su cantidad de suscriptores
type KeySubscribers struct {
	Key         string `json:"key" example:"BTC/USD/1h"`
	Subscribers int    `json:"subscribers" example:"3"`
}

// SubscriptionsResponse describe el estado del multiplexer
// @Description Active keys with reference counts and blacklisted keys
type SubscriptionsResponse struct {
	Active []KeySubscribers `json:"active"`
	Failed []string         `json:"failed"`
}

// StreamFrame es el mensaje enviado por el WebSocket de streaming
type StreamFrame struct {
	Type    string         `json:"type" example:"chart" enums:"chart,error"`
	Data    *ChartResponse `json:"data,omitempty"`
	Code    string         `json:"code,omitempty" example:"NO_CHART_INFO"`
	Message string         `json:"message,omitempty"`
}

// ErrorResponse es la respuesta de error estándar
// @Description Standard error response
type ErrorResponse struct {
	Error   string `json:"error" example:"INVALID_PARAMETER"`
	Message string `json:"message,omitempty" example:"unknown series kind \"2y\""`
	Code    int    `json:"code" example:"400"`
}

// HealthResponse
// @Description Health check response with dependency status
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy" enums:"healthy,degraded,unhealthy"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}
