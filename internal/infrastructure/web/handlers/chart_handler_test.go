package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrates-sync-service/internal/application/dto"
	"xrates-sync-service/internal/application/multiplex"
	"xrates-sync-service/internal/domain/entities"
)

func TestChartHandler_GetChart(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"snapshot disponible", "/api/v1/charts/btc/usd/1h", http.StatusOK, ""},
		{"clave sin datos", "/api/v1/charts/NONE/USD/week", http.StatusNotFound, CodeNoChartInfo},
		{"tipo desconocido", "/api/v1/charts/BTC/USD/2y", http.StatusBadRequest, CodeInvalidParameter},
		{"sin actualización a tiempo", "/api/v1/charts/SLOW/USD/today", http.StatusGatewayTimeout, CodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mx := newTestMultiplexer(chartScript)
			defer mx.Shutdown()
			router := chartRouter(NewChartHandler(mx, 100*time.Millisecond))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				var body dto.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantErr, body.Error)
				return
			}

			var body dto.ChartResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "BTC/USD/1h", body.Key)
			assert.Len(t, body.Points, 2)
			assert.Equal(t, "10", body.Diff.String())

			// el snapshot se desuscribe al responder
			assert.Eventually(t, func() bool { return len(mx.Stats().Active) == 0 }, time.Second, 10*time.Millisecond)
		})
	}
}

// Con la clave ya activa el scheduler no vuelve a sincronizar hasta el próximo poll,
// así que el snapshot sale del último ChartInfo publicado
func TestChartHandler_GetChart_KeyAlreadyActive(t *testing.T) {
	var calls atomic.Int32
	source := chartSourceFunc(func(_ context.Context, key entities.SubscriptionKey, _ *entities.MarketInfo) (*entities.ChartInfo, error) {
		calls.Add(1)
		return sampleChart(key), nil
	})

	cfg := multiplex.Config{PollInterval: time.Hour}
	mx := multiplex.New(multiplex.NewSchedulerFactory(source, nil, cfg), cfg)
	defer mx.Shutdown()
	router := chartRouter(NewChartHandler(mx, 300*time.Millisecond))

	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
	held := mx.Subscribe(context.Background(), key)
	defer held.Close()

	select {
	case info := <-held.Updates():
		require.NotNil(t, info)
	case <-time.After(time.Second):
		t.Fatal("held subscription got no initial update")
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/charts/BTC/USD/1h", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body dto.ChartResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "BTC/USD/1h", body.Key)
		assert.Len(t, body.Points, 2)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []multiplex.KeyStats{{Key: "BTC/USD/1h", Subscribers: 1}}, mx.Stats().Active)
}

func TestChartHandler_GetSubscriptions(t *testing.T) {
	mx := newTestMultiplexer(chartScript)
	defer mx.Shutdown()
	router := chartRouter(NewChartHandler(mx, 100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	key := entities.NewSubscriptionKey("ETH", "EUR", entities.KindMonth)
	mx.Subscribe(ctx, key)
	mx.Subscribe(ctx, key)

	// marca NONE como sin datos
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/charts/NONE/USD/week", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body dto.SubscriptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []dto.KeySubscribers{{Key: "ETH/EUR/month", Subscribers: 2}}, body.Active)
	assert.Equal(t, []string{"NONE/USD/week"}, body.Failed)
}

func dialStream(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn
}

func TestChartHandler_StreamChart(t *testing.T) {
	mx := newTestMultiplexer(chartScript)
	defer mx.Shutdown()
	server := httptest.NewServer(chartRouter(NewChartHandler(mx, time.Second)))
	defer server.Close()

	conn := dialStream(t, server, "/api/v1/charts/BTC/USD/1h/stream")

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var frame dto.StreamFrame
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, dto.FrameTypeChart, frame.Type)
		require.NotNil(t, frame.Data)
		assert.Equal(t, "BTC/USD/1h", frame.Data.Key)
	}

	assert.Equal(t, 1, len(mx.Stats().Active))

	// la desconexión del cliente libera la suscripción
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return len(mx.Stats().Active) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestChartHandler_StreamChart_NoData(t *testing.T) {
	mx := newTestMultiplexer(chartScript)
	defer mx.Shutdown()
	server := httptest.NewServer(chartRouter(NewChartHandler(mx, time.Second)))
	defer server.Close()

	conn := dialStream(t, server, "/api/v1/charts/NONE/USD/year/stream")
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame dto.StreamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, dto.FrameTypeError, frame.Type)
	assert.Equal(t, CodeNoChartInfo, frame.Code)

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestChartHandler_StreamChart_InvalidKey(t *testing.T) {
	mx := newTestMultiplexer(chartScript)
	defer mx.Shutdown()
	server := httptest.NewServer(chartRouter(NewChartHandler(mx, time.Second)))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/charts/BTC/USD/decade/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
