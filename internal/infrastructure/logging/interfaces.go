package logging

import (
	"context"
)

// Logger es la interfaz de logging estructurado usada en todo el servicio
type Logger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)

	InfoWithError(ctx context.Context, message string, err error, fields Fields)
	WarnWithError(ctx context.Context, message string, err error, fields Fields)
	ErrorWithError(ctx context.Context, message string, err error, fields Fields)

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DomainLogger es un Logger que etiqueta cada entrada con su dominio
type DomainLogger interface {
	Logger
	Domain() string
}

// HTTPLogger registra el ciclo de vida de los requests entrantes
type HTTPLogger interface {
	DomainLogger

	RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string)
	RequestCompleted(ctx context.Context, method, path string, statusCode int, durationMs float64)
	RequestFailed(ctx context.Context, method, path string, statusCode int, err error, durationMs float64)
}

// ExternalAPILogger registra las llamadas a proveedores externos (coingecko, coinmarketcap, kraken)
type ExternalAPILogger interface {
	DomainLogger

	RequestStarted(ctx context.Context, service, endpoint, method string)
	RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, durationMs float64)
	RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, durationMs float64)
}

// CacheLogger registra operaciones sobre el backend clave/valor
type CacheLogger interface {
	DomainLogger

	Hit(ctx context.Context, key string, operation string)
	Miss(ctx context.Context, key string, operation string)
	Set(ctx context.Context, key string, ttlSeconds float64)
	CacheError(ctx context.Context, operation, key string, err error)
}

// FeedLogger registra el ciclo de vida de suscripciones y schedulers
type FeedLogger interface {
	DomainLogger

	SubscriptionOpened(ctx context.Context, key string, subscribers int)
	SubscriptionClosed(ctx context.Context, key string, subscribers int)
	SchedulerStarted(ctx context.Context, key string)
	SchedulerStopped(ctx context.Context, key string, reason string)
	KeyBlacklisted(ctx context.Context, key string, err error)
	UpdatePublished(ctx context.Context, key string, points int, subscribers int)
}

// SecurityLogger registra eventos de autenticación y abuso
type SecurityLogger interface {
	DomainLogger

	RateLimitExceeded(ctx context.Context, clientIP string, endpoint string)
	Unauthorized(ctx context.Context, clientIP string, path string)
	SuspiciousActivity(ctx context.Context, clientIP string, activity string)
}
