package entities

import (
	"fmt"
	"strings"
	"time"
)

// SeriesKind identifica la granularidad/ventana de un gráfico (today, 1h, week...)
type SeriesKind string

const (
	KindToday   SeriesKind = "today"
	KindHourly  SeriesKind = "1h"
	KindWeek    SeriesKind = "week"
	KindMonth   SeriesKind = "month"
	KindQuarter SeriesKind = "quarter"
	KindYear    SeriesKind = "year"
)

type kindSpec struct {
	resolution time.Duration
	days       int
}

var kindSpecs = map[SeriesKind]kindSpec{
	KindToday:   {resolution: 30 * time.Minute, days: 1},
	KindHourly:  {resolution: time.Hour, days: 2},
	KindWeek:    {resolution: 4 * time.Hour, days: 7},
	KindMonth:   {resolution: 24 * time.Hour, days: 30},
	KindQuarter: {resolution: 24 * time.Hour, days: 90},
	KindYear:    {resolution: 7 * 24 * time.Hour, days: 360},
}

// AllKinds retorna los tipos soportados en orden de ventana creciente
func AllKinds() []SeriesKind {
	return []SeriesKind{KindToday, KindHourly, KindWeek, KindMonth, KindQuarter, KindYear}
}

// ParseSeriesKind convierte un string (case-insensitive) en SeriesKind
func ParseSeriesKind(s string) (SeriesKind, error) {
	kind := SeriesKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown series kind %q", ErrInvalidKey, s)
	}
	return kind, nil
}

func (k SeriesKind) Valid() bool {
	_, ok := kindSpecs[k]
	return ok
}

// Resolution es el intervalo esperado entre dos puntos consecutivos
func (k SeriesKind) Resolution() time.Duration {
	return kindSpecs[k].resolution
}

// Days es la ventana de historia que cubre el gráfico
func (k SeriesKind) Days() int {
	return kindSpecs[k].days
}

// Window es Days expresado como duración
func (k SeriesKind) Window() time.Duration {
	return time.Duration(k.Days()) * 24 * time.Hour
}

// PointCount es la cantidad de puntos que entran en la ventana con la resolución del tipo
func (k SeriesKind) PointCount() int {
	res := k.Resolution()
	if res <= 0 {
		return 0
	}
	return int(k.Window() / res)
}

func (k SeriesKind) String() string {
	return string(k)
}
