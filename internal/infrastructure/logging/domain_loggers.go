package logging

import (
	"context"
)

// domainLogger agrega el campo de dominio a todo lo que registra
type domainLogger struct {
	Logger
	domain string
}

func newDomainLogger(base Logger, domain string) *domainLogger {
	return &domainLogger{Logger: base, domain: domain}
}

func (dl *domainLogger) Domain() string {
	return dl.domain
}

func (dl *domainLogger) tag(fields Fields) Fields {
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldDomain] = dl.domain
	return out
}

func (dl *domainLogger) Debug(ctx context.Context, message string, fields Fields) {
	dl.Logger.Debug(ctx, message, dl.tag(fields))
}

func (dl *domainLogger) Info(ctx context.Context, message string, fields Fields) {
	dl.Logger.Info(ctx, message, dl.tag(fields))
}

func (dl *domainLogger) Warn(ctx context.Context, message string, fields Fields) {
	dl.Logger.Warn(ctx, message, dl.tag(fields))
}

func (dl *domainLogger) Error(ctx context.Context, message string, fields Fields) {
	dl.Logger.Error(ctx, message, dl.tag(fields))
}

func (dl *domainLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.InfoWithError(ctx, message, err, dl.tag(fields))
}

func (dl *domainLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.WarnWithError(ctx, message, err, dl.tag(fields))
}

func (dl *domainLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.ErrorWithError(ctx, message, err, dl.tag(fields))
}

// byStatus registra en Warn los 4xx y en Error los 5xx
func (dl *domainLogger) byStatus(ctx context.Context, statusCode int, message string, fields Fields) {
	switch {
	case statusCode >= 500:
		dl.Error(ctx, message, fields)
	case statusCode >= 400:
		dl.Warn(ctx, message, fields)
	default:
		dl.Info(ctx, message, fields)
	}
}

type httpLogger struct{ *domainLogger }

func NewHTTPLogger(base Logger) HTTPLogger {
	return &httpLogger{newDomainLogger(base, "http")}
}

func (l *httpLogger) RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string) {
	l.Debug(ctx, "HTTP request received", NewFieldBuilder().
		WithHTTP(method, path, 0).
		WithField(FieldHTTPUserAgent, userAgent).
		WithField(FieldHTTPRemoteIP, remoteIP).
		Build())
}

func (l *httpLogger) RequestCompleted(ctx context.Context, method, path string, statusCode int, durationMs float64) {
	fields := NewFieldBuilder().
		WithHTTP(method, path, statusCode).
		WithField(FieldDuration, durationMs).
		Build()
	l.byStatus(ctx, statusCode, "HTTP request completed", fields)
}

func (l *httpLogger) RequestFailed(ctx context.Context, method, path string, statusCode int, err error, durationMs float64) {
	l.ErrorWithError(ctx, "HTTP request failed", err, NewFieldBuilder().
		WithHTTP(method, path, statusCode).
		WithField(FieldDuration, durationMs).
		Build())
}

type externalAPILogger struct{ *domainLogger }

func NewExternalAPILogger(base Logger) ExternalAPILogger {
	return &externalAPILogger{newDomainLogger(base, "external_api")}
}

func (l *externalAPILogger) RequestStarted(ctx context.Context, service, endpoint, method string) {
	l.Debug(ctx, "External API request started", NewFieldBuilder().
		WithExternal(service, endpoint, 0).
		WithField(FieldExternalMethod, method).
		Build())
}

func (l *externalAPILogger) RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, durationMs float64) {
	fields := NewFieldBuilder().
		WithExternal(service, endpoint, statusCode).
		WithField(FieldExternalDuration, durationMs).
		Build()
	l.byStatus(ctx, statusCode, "External API request completed", fields)
}

func (l *externalAPILogger) RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, durationMs float64) {
	l.ErrorWithError(ctx, "External API request failed", err, NewFieldBuilder().
		WithExternal(service, endpoint, statusCode).
		WithField(FieldExternalDuration, durationMs).
		Build())
}

type cacheLogger struct{ *domainLogger }

func NewCacheLogger(base Logger) CacheLogger {
	return &cacheLogger{newDomainLogger(base, "cache")}
}

func (l *cacheLogger) Hit(ctx context.Context, key string, operation string) {
	l.Debug(ctx, "Cache hit", NewFieldBuilder().WithCache(operation, key, true).Build())
}

func (l *cacheLogger) Miss(ctx context.Context, key string, operation string) {
	l.Debug(ctx, "Cache miss", NewFieldBuilder().WithCache(operation, key, false).Build())
}

func (l *cacheLogger) Set(ctx context.Context, key string, ttlSeconds float64) {
	l.Debug(ctx, "Cache set", Fields{
		FieldCacheOperation: CacheOpSet,
		FieldCacheKey:       key,
		FieldCacheTTL:       ttlSeconds,
	})
}

func (l *cacheLogger) CacheError(ctx context.Context, operation, key string, err error) {
	l.ErrorWithError(ctx, "Cache operation failed", err, Fields{
		FieldCacheOperation: operation,
		FieldCacheKey:       key,
	})
}

type feedLogger struct{ *domainLogger }

func NewFeedLogger(base Logger) FeedLogger {
	return &feedLogger{newDomainLogger(base, "feed")}
}

func (l *feedLogger) SubscriptionOpened(ctx context.Context, key string, subscribers int) {
	l.Info(ctx, "Subscription opened", Fields{FieldKey: key, FieldSubscribers: subscribers})
}

func (l *feedLogger) SubscriptionClosed(ctx context.Context, key string, subscribers int) {
	l.Info(ctx, "Subscription closed", Fields{FieldKey: key, FieldSubscribers: subscribers})
}

func (l *feedLogger) SchedulerStarted(ctx context.Context, key string) {
	l.Info(ctx, "Scheduler started", Fields{FieldKey: key})
}

func (l *feedLogger) SchedulerStopped(ctx context.Context, key string, reason string) {
	l.Info(ctx, "Scheduler stopped", Fields{FieldKey: key, FieldReason: reason})
}

func (l *feedLogger) KeyBlacklisted(ctx context.Context, key string, err error) {
	l.WarnWithError(ctx, "Key has no chart info, future subscriptions will fail fast", err, Fields{FieldKey: key})
}

func (l *feedLogger) UpdatePublished(ctx context.Context, key string, points int, subscribers int) {
	l.Debug(ctx, "Chart update published", Fields{
		FieldKey:         key,
		FieldPoints:      points,
		FieldSubscribers: subscribers,
	})
}

type securityLogger struct{ *domainLogger }

func NewSecurityLogger(base Logger) SecurityLogger {
	return &securityLogger{newDomainLogger(base, "security")}
}

func (l *securityLogger) RateLimitExceeded(ctx context.Context, clientIP string, endpoint string) {
	l.Warn(ctx, "Rate limit exceeded", Fields{
		FieldClientIP:  clientIP,
		FieldEndpoint:  endpoint,
		FieldRateLimit: "exceeded",
	})
}

func (l *securityLogger) Unauthorized(ctx context.Context, clientIP string, path string) {
	l.Warn(ctx, "Unauthorized request", Fields{FieldClientIP: clientIP, FieldEndpoint: path})
}

func (l *securityLogger) SuspiciousActivity(ctx context.Context, clientIP string, activity string) {
	l.Error(ctx, "Suspicious activity detected", Fields{FieldClientIP: clientIP, FieldReason: activity})
}
