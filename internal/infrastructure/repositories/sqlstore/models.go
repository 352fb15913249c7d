package sqlstore

import (
	"github.com/shopspring/decimal"

	"xrates-sync-service/internal/domain/entities"
)

// ChartPointEntity es una fila de chart_points. PK (type, coin, currency, timestamp).
type ChartPointEntity struct {
	Type      string          `gorm:"primaryKey;size:16"`
	Coin      string          `gorm:"primaryKey;size:32"`
	Currency  string          `gorm:"primaryKey;size:16"`
	Timestamp int64           `gorm:"primaryKey"`
	Value     decimal.Decimal `gorm:"type:text;not null"`
	Volume    decimal.Decimal `gorm:"type:text"`
}

func (ChartPointEntity) TableName() string {
	return "chart_points"
}

func newChartPointEntity(key entities.SubscriptionKey, p entities.ChartPoint) ChartPointEntity {
	return ChartPointEntity{
		Type:      string(key.Kind),
		Coin:      key.AssetID,
		Currency:  key.CurrencyCode,
		Timestamp: p.Timestamp,
		Value:     p.Value,
		Volume:    p.Volume,
	}
}

func (e ChartPointEntity) toDomain() entities.ChartPoint {
	return entities.ChartPoint{Value: e.Value, Volume: e.Volume, Timestamp: e.Timestamp}
}

// HistoricalRateEntity es una fila de historical_rates
type HistoricalRateEntity struct {
	Coin      string          `gorm:"primaryKey;size:32"`
	Currency  string          `gorm:"primaryKey;size:16"`
	Timestamp int64           `gorm:"primaryKey"`
	Value     decimal.Decimal `gorm:"type:text;not null"`
}

func (HistoricalRateEntity) TableName() string {
	return "historical_rates"
}

func (e HistoricalRateEntity) toDomain() *entities.HistoricalRate {
	return &entities.HistoricalRate{
		Asset:     e.Coin,
		Currency:  e.Currency,
		Value:     e.Value,
		Timestamp: e.Timestamp,
	}
}
