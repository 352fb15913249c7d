package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
)

const (
	KrakenWebSocketURL = "wss://ws.kraken.com"
	PingInterval       = 30 * time.Second
	WriteWait          = 10 * time.Second
	PongWait           = 60 * time.Second
	ReadBufferSize     = 1024
	WriteBufferSize    = 1024

	DefaultMaxReconnectAttempts = 10
	DefaultSubscriberBuffer     = 16
	maxReconnectDelay           = 60 * time.Second
)

// WebSocketClient mantiene una única conexión al canal ticker de Kraken y
// reparte cada actualización a todos los suscriptores del par.
type WebSocketClient struct {
	url           string
	maxReconnects int
	bufferSize    int

	mu             sync.RWMutex
	conn           *websocket.Conn
	isConnected    bool
	isReconnecting bool
	closed         bool
	reconnectCount int
	reconnectTimer *time.Timer
	subscriptions  map[string]bool // pares suscritos en Kraken
	subscribers    map[string]map[uint64]chan *entities.MarketInfo
	nextID         uint64

	writeMu sync.Mutex // gorilla admite un solo escritor concurrente

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// WebSocketMessage es un mensaje de evento (subscribe, subscriptionStatus, systemStatus...)
type WebSocketMessage struct {
	Event        string      `json:"event,omitempty"`
	Pair         []string    `json:"pair,omitempty"`
	Subscription interface{} `json:"subscription,omitempty"`
	ReqID        int         `json:"reqid,omitempty"`
	Status       string      `json:"status,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}

type TickerSubscription struct {
	Name string `json:"name"`
}

func NewWebSocketClient(cfg Config) *WebSocketClient {
	if cfg.WebSocketURL == "" {
		cfg.WebSocketURL = KrakenWebSocketURL
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultSubscriberBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketClient{
		url:           cfg.WebSocketURL,
		maxReconnects: cfg.MaxReconnectAttempts,
		bufferSize:    cfg.SubscriberBuffer,
		subscriptions: make(map[string]bool),
		subscribers:   make(map[string]map[uint64]chan *entities.MarketInfo),
		ctx:           ctx,
		cancel:        cancel,
		now:           time.Now,
	}
}

// Connect establece la conexión si no existe
func (k *WebSocketClient) Connect() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return ErrWebSocketClosed
	}
	if k.isConnected {
		return nil
	}

	dialer := websocket.Dialer{
		ReadBufferSize:   ReadBufferSize,
		WriteBufferSize:  WriteBufferSize,
		HandshakeTimeout: WriteWait,
	}
	conn, _, err := dialer.DialContext(k.ctx, k.url, nil)
	if err != nil {
		metrics.UpdateWebSocketConnectionStatus(false)
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	k.conn = conn
	k.isConnected = true
	k.reconnectCount = 0
	metrics.UpdateWebSocketConnectionStatus(true)

	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	// done se cierra cuando el lector termina; el ping de esta conexión muere con él
	done := make(chan struct{})
	k.wg.Add(2)
	go k.readMessages(conn, done)
	go k.pingHandler(conn, done)

	logging.Info(k.ctx, "Kraken WebSocket connected", logging.Fields{"url": k.url})
	return nil
}

// Close cierra la conexión y termina los canales de todos los suscriptores. Es definitivo.
func (k *WebSocketClient) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.cancel()
	k.isConnected = false
	k.isReconnecting = false
	if k.reconnectTimer != nil {
		k.reconnectTimer.Stop()
		k.reconnectTimer = nil
	}
	conn := k.conn
	k.mu.Unlock()

	var err error
	if conn != nil {
		k.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		k.writeMu.Unlock()
		_ = conn.Close()
	}

	k.wg.Wait()

	k.mu.Lock()
	k.conn = nil
	k.closeAllSubscribersLocked()
	k.mu.Unlock()

	metrics.UpdateWebSocketConnectionStatus(false)
	return err
}

func (k *WebSocketClient) closeAllSubscribersLocked() {
	for pair, subs := range k.subscribers {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(k.subscribers, pair)
	}
}

// Subscribe implementa LiveRateFeed. El canal se cierra al cancelar ctx, al cerrar
// el cliente o al agotar los reintentos de reconexión.
func (k *WebSocketClient) Subscribe(ctx context.Context, asset, currency string) (<-chan *entities.MarketInfo, error) {
	pair := pairKey(asset, currency)
	if _, err := toWebSocketPair(pair); err != nil {
		return nil, err
	}

	if err := k.Connect(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil, ErrWebSocketClosed
	}
	id := k.nextID
	k.nextID++
	ch := make(chan *entities.MarketInfo, k.bufferSize)
	if k.subscribers[pair] == nil {
		k.subscribers[pair] = make(map[uint64]chan *entities.MarketInfo)
	}
	k.subscribers[pair][id] = ch
	needsSubscribe := !k.subscriptions[pair]
	k.subscriptions[pair] = true
	k.mu.Unlock()

	if needsSubscribe {
		if err := k.SubscribeTicker([]string{pair}); err != nil {
			k.removeSubscriber(pair, id)
			return nil, err
		}
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-k.ctx.Done():
		}
		k.removeSubscriber(pair, id)
	}()

	return ch, nil
}

// removeSubscriber cierra el canal del suscriptor; si era el último del par se desuscribe en Kraken
func (k *WebSocketClient) removeSubscriber(pair string, id uint64) {
	k.mu.Lock()
	subs := k.subscribers[pair]
	ch, ok := subs[id]
	if !ok {
		k.mu.Unlock()
		return
	}
	delete(subs, id)
	close(ch)

	last := len(subs) == 0
	if last {
		delete(k.subscribers, pair)
		delete(k.subscriptions, pair)
	}
	connected := k.isConnected
	k.mu.Unlock()

	if last && connected {
		if err := k.sendEvent("unsubscribe", []string{pair}); err != nil {
			logging.Debug(k.ctx, "Kraken unsubscribe failed", logging.Fields{
				"pair":             pair,
				logging.FieldError: err.Error(),
			})
		}
	}
}

// SubscribeTicker suscribe los pares al canal ticker
func (k *WebSocketClient) SubscribeTicker(pairs []string) error {
	return k.sendEvent("subscribe", pairs)
}

func (k *WebSocketClient) sendEvent(event string, pairs []string) error {
	wsPairs := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		wsPair, err := toWebSocketPair(pair)
		if err != nil {
			return err
		}
		wsPairs = append(wsPairs, wsPair)
	}

	k.mu.RLock()
	conn := k.conn
	connected := k.isConnected
	k.mu.RUnlock()
	if !connected || conn == nil {
		return ErrConnectionFailed
	}

	msg := WebSocketMessage{
		Event:        event,
		Pair:         wsPairs,
		Subscription: TickerSubscription{Name: "ticker"},
		ReqID:        int(k.now().Unix()),
	}

	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return conn.WriteJSON(msg)
}

func (k *WebSocketClient) readMessages(conn *websocket.Conn, done chan struct{}) {
	defer k.wg.Done()
	defer close(done)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if k.ctx.Err() != nil {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn(k.ctx, "Kraken WebSocket unexpected close", logging.Fields{
					logging.FieldError: err.Error(),
					"url":              k.url,
				})
			}
			k.scheduleReconnect(conn, "connection_lost")
			return
		}

		if err := k.handleMessage(payload); err != nil {
			logging.Debug(k.ctx, "Error handling Kraken WebSocket message", logging.Fields{
				logging.FieldError: err.Error(),
			})
		}
	}
}

func (k *WebSocketClient) handleMessage(payload []byte) error {
	// Actualizaciones de ticker: [channelID, data, "ticker", "XBT/USD"]
	var frame []json.RawMessage
	if err := json.Unmarshal(payload, &frame); err == nil {
		if len(frame) < 4 {
			return fmt.Errorf("%w: short ticker frame", ErrInvalidTickerData)
		}
		return k.handleTickerUpdate(frame)
	}

	var msg WebSocketMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	return k.handleEventMessage(msg)
}

func (k *WebSocketClient) handleTickerUpdate(frame []json.RawMessage) error {
	var data TickerData
	if err := json.Unmarshal(frame[1], &data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTickerData, err)
	}
	var wsPair string
	if err := json.Unmarshal(frame[len(frame)-1], &wsPair); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTickerData, err)
	}

	pair, err := fromWebSocketPair(wsPair)
	if err != nil {
		return err
	}
	asset, currency, _ := splitPair(pair)

	info, err := data.ToMarketInfo(asset, currency, ServiceName+"_ws", k.now())
	if err != nil {
		return err
	}

	k.dispatch(pair, info)
	return nil
}

// dispatch entrega sin bloquear; si el buffer de un suscriptor está lleno se descarta el más viejo
func (k *WebSocketClient) dispatch(pair string, info *entities.MarketInfo) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for _, ch := range k.subscribers[pair] {
		select {
		case ch <- info:
			continue
		default:
		}

		metrics.RecordWebSocketChannelDrop(pair)
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- info:
		default:
		}
	}
}

func (k *WebSocketClient) handleEventMessage(msg WebSocketMessage) error {
	switch msg.Event {
	case "subscriptionStatus":
		if msg.Status == "error" {
			return fmt.Errorf("subscription error: %s", msg.ErrorMessage)
		}
		logging.Debug(k.ctx, "Kraken subscription status", logging.Fields{
			"pairs":  msg.Pair,
			"status": msg.Status,
		})
	case "systemStatus":
		logging.Info(k.ctx, "Kraken WebSocket system status", logging.Fields{
			"status": msg.Status,
		})
	}
	return nil
}

func (k *WebSocketClient) pingHandler(conn *websocket.Conn, done chan struct{}) {
	defer k.wg.Done()
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-k.ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			k.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait))
			k.writeMu.Unlock()
			if err != nil {
				// el lector detecta la caída y agenda la reconexión
				_ = conn.Close()
				return
			}
		}
	}
}

// scheduleReconnect agenda un reintento con backoff lineal (1s, 2s, ... máx 60s).
// Agotados los intentos se cierran los canales de los suscriptores.
func (k *WebSocketClient) scheduleReconnect(lost *websocket.Conn, reason string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return
	}
	// una conexión vieja no puede tumbar a la actual
	if lost != nil && k.conn != lost {
		return
	}
	k.isConnected = false
	if k.conn != nil {
		_ = k.conn.Close()
		k.conn = nil
	}
	metrics.UpdateWebSocketConnectionStatus(false)

	if k.isReconnecting && k.reconnectTimer != nil {
		return
	}

	k.reconnectCount++
	if k.reconnectCount > k.maxReconnects {
		logging.Error(k.ctx, "Maximum Kraken WebSocket reconnection attempts reached", logging.Fields{
			"max_attempts": k.maxReconnects,
			"url":          k.url,
		})
		k.isReconnecting = false
		k.closeAllSubscribersLocked()
		for pair := range k.subscriptions {
			delete(k.subscriptions, pair)
		}
		return
	}

	delay := time.Duration(k.reconnectCount) * time.Second
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}

	k.isReconnecting = true
	metrics.RecordWebSocketReconnectionAttempt(reason)
	logging.Info(k.ctx, "Scheduling Kraken WebSocket reconnection", logging.Fields{
		"delay_seconds": delay.Seconds(),
		"attempt":       k.reconnectCount,
	})

	k.reconnectTimer = time.AfterFunc(delay, k.performReconnect)
}

func (k *WebSocketClient) performReconnect() {
	k.mu.Lock()
	k.reconnectTimer = nil
	if k.closed || !k.isReconnecting {
		k.mu.Unlock()
		return
	}
	k.mu.Unlock()

	if err := k.Connect(); err != nil {
		logging.Warn(k.ctx, "Kraken WebSocket reconnection attempt failed", logging.Fields{
			logging.FieldError: err.Error(),
		})
		k.scheduleReconnect(nil, "reconnect_failed")
		return
	}

	k.mu.Lock()
	k.isReconnecting = false
	k.reconnectCount = 0
	pairs := make([]string, 0, len(k.subscriptions))
	for pair := range k.subscriptions {
		pairs = append(pairs, pair)
	}
	k.mu.Unlock()

	if len(pairs) == 0 {
		return
	}
	if err := k.SubscribeTicker(pairs); err != nil {
		logging.Warn(k.ctx, "Failed to re-subscribe pairs after reconnect", logging.Fields{
			"pairs":            pairs,
			logging.FieldError: err.Error(),
		})
		return
	}
	logging.Info(k.ctx, "Re-subscribed pairs after reconnect", logging.Fields{
		"pairs_count": len(pairs),
	})
}

// IsConnected retorna el estado de la conexión
func (k *WebSocketClient) IsConnected() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.isConnected
}

// ReconnectionStatus retorna si hay una reconexión en curso y el número de intento
func (k *WebSocketClient) ReconnectionStatus() (bool, int) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.isReconnecting, k.reconnectCount
}

// SubscriberCount retorna cuántos suscriptores locales tiene un par
func (k *WebSocketClient) SubscriberCount(asset, currency string) int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.subscribers[pairKey(asset, currency)])
}
