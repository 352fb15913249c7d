package dto

import (
	"xrates-sync-service/internal/domain/entities"
)

const (
	FrameTypeChart = "chart"
	FrameTypeError = "error"
)

func ToChartResponse(info *entities.ChartInfo) *ChartResponse {
	if info == nil {
		return nil
	}
	points := make([]ChartPointData, len(info.Points))
	for i, p := range info.Points {
		points[i] = ChartPointData{Timestamp: p.Timestamp, Value: p.Value, Volume: p.Volume}
	}
	return &ChartResponse{
		Key:            info.Key.String(),
		Asset:          info.Key.AssetID,
		Currency:       info.Key.CurrencyCode,
		Kind:           info.Key.Kind.String(),
		StartTimestamp: info.StartTimestamp,
		EndTimestamp:   info.EndTimestamp,
		Diff:           info.Diff,
		UpdatedAt:      info.UpdatedAt,
		Points:         points,
	}
}

func ToMarketInfoResponse(info *entities.MarketInfo) *MarketInfoResponse {
	if info == nil {
		return nil
	}
	return &MarketInfoResponse{
		Asset:     info.Asset,
		Currency:  info.Currency,
		Rate:      info.Rate,
		Diff24h:   info.Diff24h,
		Volume:    info.Volume,
		MarketCap: info.MarketCap,
		Timestamp: info.Timestamp,
		Source:    info.Source,
	}
}

func ToHistoricalRateResponse(rate *entities.HistoricalRate) *HistoricalRateResponse {
	return &HistoricalRateResponse{
		Asset:     rate.Asset,
		Currency:  rate.Currency,
		Value:     rate.Value,
		Timestamp: rate.Timestamp,
	}
}

func ToTopMarketsResponse(currency string, markets []*entities.TopMarket) *TopMarketsResponse {
	data := make([]TopMarketData, 0, len(markets))
	for _, m := range markets {
		data = append(data, TopMarketData{
			Rank:   m.Rank,
			Asset:  m.Asset,
			Name:   m.Name,
			Market: ToMarketInfoResponse(m.MarketInfo),
		})
	}
	return &TopMarketsResponse{Currency: currency, Markets: data}
}

func ChartFrame(info *entities.ChartInfo) StreamFrame {
	return StreamFrame{Type: FrameTypeChart, Data: ToChartResponse(info)}
}

func ErrorFrame(code, message string) StreamFrame {
	return StreamFrame{Type: FrameTypeError, Code: code, Message: message}
}
