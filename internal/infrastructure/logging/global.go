package logging

import (
	"context"
)

// Atajos sobre el logger global

func Debug(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Debug(ctx, message, fields)
}

func Info(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Info(ctx, message, fields)
}

func Warn(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Warn(ctx, message, fields)
}

func Error(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Error(ctx, message, fields)
}

func InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().InfoWithError(ctx, message, err, fields)
}

func WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().WarnWithError(ctx, message, err, fields)
}

func ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().ErrorWithError(ctx, message, err, fields)
}

// ExternalRequest registra el resultado de una llamada a un proveedor externo
func ExternalRequest(ctx context.Context, service, endpoint string, durationMs float64, statusCode int) {
	GetGlobalLoggers().ExternalAPI.RequestCompleted(ctx, service, endpoint, statusCode, durationMs)
}

// CacheOperation registra un hit o miss de cache
func CacheOperation(ctx context.Context, operation, key string, hit bool) {
	if hit {
		GetGlobalLoggers().Cache.Hit(ctx, key, operation)
		return
	}
	GetGlobalLoggers().Cache.Miss(ctx, key, operation)
}

func HTTP() HTTPLogger {
	return GetGlobalLoggers().HTTP
}

func ExternalAPI() ExternalAPILogger {
	return GetGlobalLoggers().ExternalAPI
}

func Cache() CacheLogger {
	return GetGlobalLoggers().Cache
}

func Feed() FeedLogger {
	return GetGlobalLoggers().Feed
}

func Security() SecurityLogger {
	return GetGlobalLoggers().Security
}
