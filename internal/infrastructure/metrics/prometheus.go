package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "xrates"

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Cache
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit/miss/success/error
	)

	// Proveedores externos
	ExternalAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_api_requests_total",
			Help:      "Total number of external API requests",
		},
		[]string{"service", "endpoint", "status_code"},
	)

	ExternalAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_api_request_duration_seconds",
			Help:      "External API request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"service", "endpoint"},
	)

	ExternalAPIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_api_retries_total",
			Help:      "Total number of external API retry attempts",
		},
		[]string{"service", "endpoint"},
	)

	ExternalAPIRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_api_rate_limited_total",
			Help:      "Responses with status 429 from external providers",
		},
		[]string{"service", "endpoint"},
	)

	// Multiplexer
	ActiveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "Current number of subscribers per chart key",
		},
		[]string{"key"},
	)

	ActiveSchedulers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_schedulers",
			Help:      "Number of running sync schedulers",
		},
	)

	FailedKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_keys",
			Help:      "Number of keys memoized as having no chart info",
		},
	)

	SchedulerCleanupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_cleanups_total",
			Help:      "Number of per-key cleanups after the last subscriber left",
		},
	)

	FastFailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fast_fails_total",
			Help:      "Subscriptions rejected because the key is memoized as failed",
		},
		[]string{"kind"},
	)

	UpdatesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_published_total",
			Help:      "Chart updates published to subscribers",
		},
		[]string{"kind"},
	)

	UpdateErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_errors_total",
			Help:      "Transient update errors by origin",
		},
		[]string{"kind", "origin"},
	)

	SubscriberDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_drops_total",
			Help:      "Chart updates dropped because a subscriber buffer was full",
		},
		[]string{"kind"},
	)

	SchedulerEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_events_dropped_total",
			Help:      "Scheduler events coalesced because the event queue was full",
		},
		[]string{"origin"},
	)

	SecondaryFeedErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "secondary_feed_errors_total",
			Help:      "Live rate feed errors swallowed by schedulers",
		},
		[]string{"reason"},
	)

	// Rate limit
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_requests_total",
			Help:      "Total number of requests processed by rate limiter",
		},
		[]string{"result"},
	)

	// WebSocket y fallback
	WebSocketChannelDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_channel_drops_total",
			Help:      "Live rate updates dropped because a listener channel was full",
		},
		[]string{"pair"},
	)

	WebSocketConnectionStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connection_status",
			Help:      "WebSocket connection status (1=connected, 0=disconnected)",
		},
	)

	WebSocketReconnectionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_reconnection_attempts_total",
			Help:      "Total number of WebSocket reconnection attempts",
		},
		[]string{"reason"},
	)

	FallbackActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_activations_total",
			Help:      "Live feed fallbacks from WebSocket to REST polling",
		},
		[]string{"reason", "pair"},
	)

	StreamClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients_active",
			Help:      "WebSocket clients connected to the chart stream endpoint",
		},
	)

	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "application_info",
			Help:      "Application information",
		},
		[]string{"version", "go_version"},
	)
)

func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

func RecordExternalAPICall(service, endpoint string, statusCode int, duration float64) {
	ExternalAPIRequestsTotal.WithLabelValues(service, endpoint, strconv.Itoa(statusCode)).Inc()
	ExternalAPIRequestDuration.WithLabelValues(service, endpoint).Observe(duration)
	if statusCode == 429 {
		ExternalAPIRateLimited.WithLabelValues(service, endpoint).Inc()
	}
}

func RecordExternalAPIRetry(service, endpoint string) {
	ExternalAPIRetries.WithLabelValues(service, endpoint).Inc()
}

// UpdateActiveSubscriptions fija el número de suscriptores de una clave; con 0 se elimina la serie
func UpdateActiveSubscriptions(key string, subscribers int) {
	if subscribers <= 0 {
		ActiveSubscriptions.DeleteLabelValues(key)
		return
	}
	ActiveSubscriptions.WithLabelValues(key).Set(float64(subscribers))
}

func UpdateActiveSchedulers(delta float64) {
	ActiveSchedulers.Add(delta)
}

func UpdateFailedKeys(n int) {
	FailedKeys.Set(float64(n))
}

func RecordSchedulerCleanup() {
	SchedulerCleanupsTotal.Inc()
}

func RecordFastFail(kind string) {
	FastFailsTotal.WithLabelValues(kind).Inc()
}

func RecordUpdatePublished(kind string) {
	UpdatesPublishedTotal.WithLabelValues(kind).Inc()
}

func RecordUpdateError(kind, origin string) {
	UpdateErrorsTotal.WithLabelValues(kind, origin).Inc()
}

func RecordSubscriberDrop(kind string) {
	SubscriberDropsTotal.WithLabelValues(kind).Inc()
}

func RecordSchedulerEventDropped(origin string) {
	SchedulerEventsDroppedTotal.WithLabelValues(origin).Inc()
}

func RecordSecondaryFeedError(reason string) {
	SecondaryFeedErrorsTotal.WithLabelValues(reason).Inc()
}

func RecordRateLimitResult(allowed bool) {
	result := "blocked"
	if allowed {
		result = "allowed"
	}
	RateLimitRequestsTotal.WithLabelValues(result).Inc()
}

// RecordWebSocketChannelDrop cuenta descartes por canal lleno
func RecordWebSocketChannelDrop(pair string) {
	WebSocketChannelDrops.WithLabelValues(pair).Inc()
}

func UpdateWebSocketConnectionStatus(connected bool) {
	status := 0.0
	if connected {
		status = 1.0
	}
	WebSocketConnectionStatus.Set(status)
}

func RecordWebSocketReconnectionAttempt(reason string) {
	WebSocketReconnectionAttempts.WithLabelValues(reason).Inc()
}

func RecordFallbackActivation(reason, pair string) {
	FallbackActivationsTotal.WithLabelValues(reason, pair).Inc()
}

func UpdateStreamClients(delta float64) {
	StreamClientsActive.Add(delta)
}

func SetApplicationInfo(version, goVersion string) {
	ApplicationInfo.WithLabelValues(version, goVersion).Set(1)
}
