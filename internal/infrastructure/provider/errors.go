package provider

import "errors"

var (
	// ErrRetryableRequest agrupa fallos de red, 5xx y 429
	ErrRetryableRequest = errors.New("retryable provider request failed")
	// ErrNonRetryable agrupa respuestas 4xx y payloads inválidos
	ErrNonRetryable = errors.New("non-retryable provider error")
	// ErrNoData indica que el proveedor no tiene datos para el activo pedido
	ErrNoData = errors.New("provider has no data")
	// ErrNotConfigured se devuelve cuando falta configuración obligatoria (p.ej. API key)
	ErrNotConfigured = errors.New("provider not configured")
)
