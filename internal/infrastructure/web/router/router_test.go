package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrates-sync-service/internal/application/dto"
	"xrates-sync-service/internal/application/multiplex"
	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/config"
	"xrates-sync-service/internal/infrastructure/web/handlers"
)

type idleDriver struct{}

func (idleDriver) Start() {}
func (idleDriver) Stop()  {}

type noopMarketInfo struct{}

func (noopMarketInfo) Latest(context.Context, string, string) (*entities.MarketInfo, error) {
	return nil, nil
}

func (noopMarketInfo) Historical(context.Context, string, string, time.Time) (*entities.HistoricalRate, error) {
	return nil, nil
}

func (noopMarketInfo) TopMarkets(context.Context, int, string) ([]*entities.TopMarket, error) {
	return nil, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mx := multiplex.New(func(entities.SubscriptionKey, multiplex.Sink) multiplex.Driver { return idleDriver{} }, multiplex.Config{})
	t.Cleanup(mx.Shutdown)

	cfg := config.GetDefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	cfg.RateLimit.Capacity = 2
	cfg.RateLimit.RefillRate = 1

	return New(Deps{
		Health:    handlers.NewHealthHandler(map[string]handlers.Pinger{"cache": okPinger{}}),
		Charts:    handlers.NewChartHandler(mx, 50*time.Millisecond),
		Rates:     handlers.NewRatesHandler(noopMarketInfo{}),
		Auth:      cfg.Auth,
		RateLimit: cfg.RateLimit,
	})
}

func do(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.10:4000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/health", "/ready", "/metrics", "/swagger/doc.json"} {
		rec := do(h, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), path)
	}

	rec := do(h, "/swagger/doc.json", nil)
	assert.Contains(t, rec.Body.String(), "/api/v1/charts/{asset}/{currency}/{kind}")
}

func TestRouter_AuthAndRateLimit(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, "/api/v1/subscriptions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	auth := map[string]string{"X-API-Key": "secret"}
	for i := 0; i < 2; i++ {
		rec = do(h, "/api/v1/subscriptions", auth)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var body dto.SubscriptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Active)

	rec = do(h, "/api/v1/subscriptions", auth)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health queda fuera del rate limit
	assert.Equal(t, http.StatusOK, do(h, "/health", nil).Code)
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, "/api/v2/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "NOT_FOUND"))
}

func TestRouter_ChartTimeout(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, "/api/v1/charts/BTC/USD/1h", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}
