package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChartPoint es un punto de la serie. Timestamp en segundos unix.
type ChartPoint struct {
	Value     decimal.Decimal `json:"value"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp int64           `json:"timestamp"`
}

// ChartInfo es el valor que se publica a los suscriptores de una clave
type ChartInfo struct {
	Key            SubscriptionKey `json:"key"`
	Points         []ChartPoint    `json:"points"`
	StartTimestamp int64           `json:"start_timestamp"`
	EndTimestamp   int64           `json:"end_timestamp"`
	Diff           decimal.Decimal `json:"diff"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewChartInfo arma el ChartInfo a partir de puntos ordenados por timestamp.
// Retorna nil si no hay puntos.
func NewChartInfo(key SubscriptionKey, points []ChartPoint, updatedAt time.Time) *ChartInfo {
	if len(points) == 0 {
		return nil
	}

	first := points[0]
	last := points[len(points)-1]

	diff := decimal.Zero
	if !first.Value.IsZero() {
		diff = last.Value.Sub(first.Value).Div(first.Value).Mul(decimal.NewFromInt(100))
	}

	return &ChartInfo{
		Key:            key,
		Points:         points,
		StartTimestamp: first.Timestamp,
		EndTimestamp:   last.Timestamp,
		Diff:           diff,
		UpdatedAt:      updatedAt,
	}
}

// Latest retorna el último punto, ok=false si el gráfico está vacío
func (c *ChartInfo) Latest() (ChartPoint, bool) {
	if c == nil || len(c.Points) == 0 {
		return ChartPoint{}, false
	}
	return c.Points[len(c.Points)-1], true
}
