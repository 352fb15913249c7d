package entities

import "errors"

var (
	// ErrNoChartInfo indica que la fuente no tiene datos para la clave y nunca los tendrá.
	// Es el único error que llega a los consumidores de una suscripción.
	ErrNoChartInfo = errors.New("no chart info")

	// ErrInvalidKey se devuelve cuando la clave de suscripción está incompleta o el tipo es desconocido
	ErrInvalidKey = errors.New("invalid subscription key")
)
