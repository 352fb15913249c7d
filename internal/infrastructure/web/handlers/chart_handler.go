package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"xrates-sync-service/internal/application/dto"
	"xrates-sync-service/internal/application/multiplex"
	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
	"xrates-sync-service/internal/infrastructure/web/respond"
)

const (
	DefaultSnapshotTimeout = 10 * time.Second

	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamReadLimit  = 512
)

// ChartSubscriber es la parte del multiplexer que usan los handlers
type ChartSubscriber interface {
	Subscribe(ctx context.Context, key entities.SubscriptionKey) *multiplex.Subscription
	Stats() multiplex.Stats
}

// ChartHandler expone los gráficos: snapshot, streaming por WebSocket y estado de suscripciones
type ChartHandler struct {
	charts          ChartSubscriber
	snapshotTimeout time.Duration
	upgrader        websocket.Upgrader
	pingPeriod      time.Duration
}

func NewChartHandler(charts ChartSubscriber, snapshotTimeout time.Duration) *ChartHandler {
	if snapshotTimeout <= 0 {
		snapshotTimeout = DefaultSnapshotTimeout
	}
	return &ChartHandler{
		charts:          charts,
		snapshotTimeout: snapshotTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingPeriod: streamPingPeriod,
	}
}

func chartKey(r *http.Request) (entities.SubscriptionKey, error) {
	vars := mux.Vars(r)
	return dto.NewChartRequest(vars["asset"], vars["currency"], vars["kind"])
}

// GetChart godoc
// @Summary Chart snapshot
// @Description Subscribes to the key and detaches. If the key is already being synced the latest published chart is returned right away, otherwise it waits for the first update.
// @Tags charts
// @Produce json
// @Param asset path string true "Asset id" example(BTC)
// @Param currency path string true "Currency code" example(USD)
// @Param kind path string true "Series kind" Enums(today, 1h, week, month, quarter, year)
// @Success 200 {object} dto.ChartResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Key has no chart info"
// @Failure 504 {object} dto.ErrorResponse "No update within snapshot_timeout"
// @Security ApiKeyAuth
// @Router /api/v1/charts/{asset}/{currency}/{kind} [get]
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	key, err := chartKey(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, CodeInvalidParameter, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.snapshotTimeout)
	defer cancel()

	sub := h.charts.Subscribe(ctx, key)
	defer sub.Close()

	// Una clave ya activa no vuelve a sincronizar al sumar un lector
	info := sub.Latest()
	if info == nil {
		select {
		case info = <-sub.Updates():
		case <-ctx.Done():
		}
	}

	if info != nil {
		respond.JSON(w, r, http.StatusOK, dto.ToChartResponse(info))
		return
	}

	if err := sub.Err(); err != nil {
		status, code := classify(err)
		respond.Error(w, r, status, code, err.Error())
		return
	}

	if r.Context().Err() != nil {
		// el cliente se fue
		return
	}

	logging.Warn(r.Context(), "Chart snapshot timed out", logging.Fields{
		logging.FieldKey: key.String(),
		"timeout":        h.snapshotTimeout.String(),
	})
	respond.Error(w, r, http.StatusGatewayTimeout, CodeTimeout, "no chart update for "+key.String()+" within "+h.snapshotTimeout.String())
}

// StreamChart godoc
// @Summary Chart stream
// @Description Upgrades to WebSocket. Every update is sent as {"type":"chart","data":...}. A terminal error is sent as {"type":"error","code":...} and the socket is closed.
// @Tags charts
// @Param asset path string true "Asset id" example(BTC)
// @Param currency path string true "Currency code" example(USD)
// @Param kind path string true "Series kind" Enums(today, 1h, week, month, quarter, year)
// @Success 101 {object} dto.StreamFrame
// @Failure 400 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/charts/{asset}/{currency}/{kind}/stream [get]
func (h *ChartHandler) StreamChart(w http.ResponseWriter, r *http.Request) {
	key, err := chartKey(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, CodeInvalidParameter, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade ya respondió al cliente
		logging.WarnWithError(r.Context(), "WebSocket upgrade failed", err, logging.Fields{
			logging.FieldKey: key.String(),
		})
		return
	}
	defer conn.Close()

	metrics.UpdateStreamClients(1)
	defer metrics.UpdateStreamClients(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.charts.Subscribe(ctx, key)
	defer sub.Close()

	logging.Info(ctx, "Chart stream opened", logging.Fields{
		logging.FieldKey:          key.String(),
		logging.FieldHTTPRemoteIP: conn.RemoteAddr().String(),
	})

	// El reader detecta la desconexión del cliente y procesa pong/close
	go func() {
		defer cancel()
		conn.SetReadLimit(streamReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	reason := h.pump(ctx, conn, sub)

	logging.Info(ctx, "Chart stream closed", logging.Fields{
		logging.FieldKey:    key.String(),
		logging.FieldReason: reason,
	})
}

// pump envía los updates hasta que termina la suscripción o se desconecta el cliente
func (h *ChartHandler) pump(ctx context.Context, conn *websocket.Conn, sub *multiplex.Subscription) string {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case info, ok := <-sub.Updates():
			if !ok {
				return h.finish(conn, sub.Err())
			}
			if err := writeFrame(conn, dto.ChartFrame(info)); err != nil {
				return "write_error"
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return "ping_error"
			}
		case <-ctx.Done():
			return "client_disconnected"
		}
	}
}

// finish manda el frame de error si lo hay y cierra el socket ordenadamente
func (h *ChartHandler) finish(conn *websocket.Conn, err error) string {
	closeCode, reason := websocket.CloseNormalClosure, "completed"
	if err != nil {
		_, code := classify(err)
		_ = writeFrame(conn, dto.ErrorFrame(code, err.Error()))
		closeCode, reason = websocket.CloseGoingAway, code
		if code == CodeNoChartInfo || code == CodeInvalidParameter {
			closeCode = websocket.ClosePolicyViolation
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(closeCode, reason),
		time.Now().Add(streamWriteWait))
	return reason
}

func writeFrame(conn *websocket.Conn, frame dto.StreamFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(frame)
}

// GetSubscriptions godoc
// @Summary Multiplexer state
// @Description Active keys with their subscriber counts, and keys marked as having no data.
// @Tags charts
// @Produce json
// @Success 200 {object} dto.SubscriptionsResponse
// @Security ApiKeyAuth
// @Router /api/v1/subscriptions [get]
func (h *ChartHandler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	stats := h.charts.Stats()

	active := make([]dto.KeySubscribers, 0, len(stats.Active))
	for _, k := range stats.Active {
		active = append(active, dto.KeySubscribers{Key: k.Key, Subscribers: k.Subscribers})
	}
	failed := stats.Failed
	if failed == nil {
		failed = []string{}
	}

	respond.JSON(w, r, http.StatusOK, dto.SubscriptionsResponse{Active: active, Failed: failed})
}
