package coingecko

import "encoding/json"

// marketChartResponse es la respuesta de /coins/{id}/market_chart y /market_chart/range.
// Cada entrada es [timestamp_ms, valor].
type marketChartResponse struct {
	Prices       [][]json.Number `json:"prices"`
	TotalVolumes [][]json.Number `json:"total_volumes"`
}

// simplePriceResponse: {"bitcoin": {"usd": 1, "usd_24h_change": 2, ...}}
type simplePriceResponse map[string]map[string]json.Number
