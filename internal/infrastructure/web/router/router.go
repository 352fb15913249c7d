package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "xrates-sync-service/docs"
	"xrates-sync-service/internal/infrastructure/config"
	"xrates-sync-service/internal/infrastructure/metrics"
	"xrates-sync-service/internal/infrastructure/ratelimit"
	"xrates-sync-service/internal/infrastructure/web/handlers"
	"xrates-sync-service/internal/infrastructure/web/middleware"
	"xrates-sync-service/internal/infrastructure/web/respond"
)

// Deps son los handlers y la configuración que necesita el router
type Deps struct {
	Health    *handlers.HealthHandler
	Charts    *handlers.ChartHandler
	Rates     *handlers.RatesHandler
	Auth      config.AuthConfig
	RateLimit config.RateLimitConfig
}

// New arma las rutas y la cadena de middlewares:
// tracing -> métricas -> logging -> auth -> rate limit -> handler
func New(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respond.Error(w, req, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respond.Error(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.HandleFunc("/health", deps.Health.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", deps.Health.Ready).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Handle("/docs", http.RedirectHandler("/swagger/index.html", http.StatusMovedPermanently))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/charts/{asset}/{currency}/{kind}", deps.Charts.GetChart).Methods(http.MethodGet)
	api.HandleFunc("/charts/{asset}/{currency}/{kind}/stream", deps.Charts.StreamChart).Methods(http.MethodGet)
	api.HandleFunc("/subscriptions", deps.Charts.GetSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/rates/{asset}/{currency}", deps.Rates.GetRate).Methods(http.MethodGet)
	api.HandleFunc("/rates/{asset}/{currency}/historical", deps.Rates.GetHistoricalRate).Methods(http.MethodGet)
	api.HandleFunc("/markets/top", deps.Rates.GetTopMarkets).Methods(http.MethodGet)

	skipPaths := []string{"/health", "/ready", "/metrics", "/swagger/", "/docs"}
	r.Use(
		middleware.RequestTracingMiddleware,
		metrics.HTTPMetricsMiddleware,
		middleware.LoggingMiddleware,
		middleware.NewAuthMiddleware(deps.Auth).Handler,
		ratelimit.NewRateLimitMiddleware(deps.RateLimit, skipPaths).Handler,
	)

	return r
}
