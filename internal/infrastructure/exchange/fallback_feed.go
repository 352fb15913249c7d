package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/exchange/kraken"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
)

const (
	DefaultPollInterval   = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// FallbackConfig controla cuándo se abandona el WebSocket y cada cuánto se consulta REST
type FallbackConfig struct {
	// PollInterval es a la vez el umbral de silencio del WebSocket y el intervalo de polling
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// RateLookup es la fuente REST del fallback (MarketInfoService.Latest)
type RateLookup interface {
	Latest(ctx context.Context, asset, currency string) (*entities.MarketInfo, error)
}

// RateWriter persiste cada cotización emitida (cache de market info)
type RateWriter interface {
	Set(ctx context.Context, info *entities.MarketInfo) error
}

// FallbackRateFeed implementa LiveRateFeed con estrategia WebSocket → REST.
// Mientras el WebSocket entrega datos se reenvían tal cual; si se cierra o pasa
// PollInterval sin datos se consulta la fuente REST en cada intervalo.
type FallbackRateFeed struct {
	primary   interfaces.LiveRateFeed
	secondary RateLookup
	rates     RateWriter
	config    FallbackConfig
}

// NewFallbackRateFeed crea el feed. primary y rates pueden ser nil.
func NewFallbackRateFeed(primary interfaces.LiveRateFeed, secondary RateLookup, rates RateWriter, config FallbackConfig) *FallbackRateFeed {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	return &FallbackRateFeed{
		primary:   primary,
		secondary: secondary,
		rates:     rates,
		config:    config,
	}
}

// Subscribe emite las cotizaciones del par hasta que ctx se cancela.
// El canal guarda sólo la última cotización si el consumidor se atrasa.
func (f *FallbackRateFeed) Subscribe(ctx context.Context, asset, currency string) (<-chan *entities.MarketInfo, error) {
	out := make(chan *entities.MarketInfo, 1)
	s := &feedStream{
		feed:     f,
		asset:    strings.ToUpper(asset),
		currency: strings.ToUpper(currency),
		out:      out,
	}
	go s.run(ctx)
	return out, nil
}

type feedStream struct {
	feed     *FallbackRateFeed
	asset    string
	currency string
	out      chan *entities.MarketInfo

	live       <-chan *entities.MarketInfo
	onFallback bool
	lastTs     int64
	polledAt   time.Time
}

func (s *feedStream) pair() string {
	return s.asset + "/" + s.currency
}

func (s *feedStream) run(ctx context.Context) {
	defer close(s.out)

	s.connectPrimary(ctx)

	timer := time.NewTimer(s.feed.config.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case info, ok := <-s.live:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				s.live = nil
				s.activate(ctx, "connection_closed", nil)
				// a lo sumo una consulta REST por intervalo; la reconexión espera al timer
				if s.pollDue() {
					s.poll(ctx)
				}
				resetTimer(timer, s.feed.config.PollInterval)
				continue
			}
			if s.onFallback {
				s.onFallback = false
				logging.Info(ctx, "Live rates recovered on WebSocket", logging.Fields{"pair": s.pair()})
			}
			s.emit(ctx, info)
			resetTimer(timer, s.feed.config.PollInterval)

		case <-timer.C:
			if s.live == nil {
				s.connectPrimary(ctx)
			} else {
				s.activate(ctx, "stale", nil)
			}
			s.poll(ctx)
			timer.Reset(s.feed.config.PollInterval)
		}
	}
}

func (s *feedStream) connectPrimary(ctx context.Context) {
	if s.feed.primary == nil {
		s.activate(ctx, "primary_disabled", nil)
		return
	}
	ch, err := s.feed.primary.Subscribe(ctx, s.asset, s.currency)
	if err != nil {
		s.activate(ctx, fallbackReason(err), err)
		return
	}
	s.live = ch
}

// activate registra el paso a REST una sola vez por transición
func (s *feedStream) activate(ctx context.Context, reason string, err error) {
	if s.onFallback {
		return
	}
	s.onFallback = true
	metrics.RecordFallbackActivation(reason, s.pair())

	fields := logging.Fields{
		"pair":              s.pair(),
		logging.FieldReason: reason,
	}
	if err != nil {
		fields[logging.FieldError] = err.Error()
	}
	logging.Info(ctx, "Live rates falling back to REST polling", fields)
}

func (s *feedStream) pollDue() bool {
	return s.polledAt.IsZero() || time.Since(s.polledAt) >= s.feed.config.PollInterval
}

func (s *feedStream) poll(ctx context.Context) {
	s.polledAt = time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, s.feed.config.RequestTimeout)
	defer cancel()

	info, err := s.feed.secondary.Latest(reqCtx, s.asset, s.currency)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn(ctx, "REST fallback fetch failed", logging.Fields{
				"pair":             s.pair(),
				logging.FieldError: err.Error(),
			})
		}
		return
	}
	s.emit(ctx, info)
}

// emit descarta cotizaciones que no avanzan en el tiempo y reemplaza la pendiente si el consumidor no leyó
func (s *feedStream) emit(ctx context.Context, info *entities.MarketInfo) {
	if info == nil || info.Timestamp <= s.lastTs {
		return
	}
	s.lastTs = info.Timestamp

	if s.feed.rates != nil {
		if err := s.feed.rates.Set(ctx, info); err != nil {
			logging.Debug(ctx, "Failed to cache live rate", logging.Fields{
				"pair":             s.pair(),
				logging.FieldError: err.Error(),
			})
		}
	}

	select {
	case s.out <- info:
		return
	default:
	}
	select {
	case <-s.out:
	default:
	}
	select {
	case s.out <- info:
	default:
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, kraken.ErrInvalidPair):
		return "unsupported_pair"
	case errors.Is(err, kraken.ErrWebSocketClosed):
		return "connection_closed"
	case errors.Is(err, kraken.ErrConnectionFailed):
		return "connection_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unknown_error"
	}
}
