package multiplex

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
)

// Driver es el ciclo de sincronización de una clave.
// Start y Stop son idempotentes y no bloquean; Stop es seguro antes de Start.
type Driver interface {
	Start()
	Stop()
}

// Sink recibe los resultados de un Driver
type Sink interface {
	Publish(key entities.SubscriptionKey, info *entities.ChartInfo)
	NoData(key entities.SubscriptionKey, err error)
}

// DriverFactory construye el Driver de una clave ligado a su Sink
type DriverFactory func(key entities.SubscriptionKey, sink Sink) Driver

const (
	originTimer = "timer"
	originFeed  = "feed"
)

type event struct {
	origin string
	latest *entities.MarketInfo
}

// Scheduler sincroniza una clave: un timer y el feed en vivo encolan eventos en
// una cola acotada y un único loop los procesa llamando a la UpdateSource.
type Scheduler struct {
	key    entities.SubscriptionKey
	source interfaces.UpdateSource
	feed   interfaces.LiveRateFeed
	sink   Sink
	config Config

	events chan event
	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	done      chan struct{}
}

// NewSchedulerFactory retorna un DriverFactory que crea Schedulers sobre source y feed.
// feed puede ser nil.
func NewSchedulerFactory(source interfaces.UpdateSource, feed interfaces.LiveRateFeed, config Config) DriverFactory {
	config = config.withDefaults()
	return func(key entities.SubscriptionKey, sink Sink) Driver {
		return NewScheduler(key, source, feed, sink, config)
	}
}

func NewScheduler(key entities.SubscriptionKey, source interfaces.UpdateSource, feed interfaces.LiveRateFeed, sink Sink, config Config) *Scheduler {
	config = config.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.WithRequestID(ctx, "sched-"+key.String())

	return &Scheduler{
		key:    key,
		source: source,
		feed:   feed,
		sink:   sink,
		config: config,
		events: make(chan event, config.EventBuffer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run()
	})
}

// Stop cancela el loop sin esperar a que termine, por lo que puede llamarse desde el propio loop
func (s *Scheduler) Stop() {
	s.stopOnce.Do(s.cancel)
}

// Wait bloquea hasta que el loop terminó. Retorna de inmediato si nunca arrancó.
func (s *Scheduler) Wait() {
	if !s.started.Load() {
		return
	}
	<-s.done
}

func (s *Scheduler) run() {
	var wg sync.WaitGroup

	defer close(s.done)
	defer wg.Wait()
	defer s.cancel()

	metrics.UpdateActiveSchedulers(1)
	defer metrics.UpdateActiveSchedulers(-1)

	logging.Feed().SchedulerStarted(s.ctx, s.key.String())

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.tick()
	}()
	go func() {
		defer wg.Done()
		s.watchFeed()
	}()

	// Sincronización inicial, sin esperar al primer tick
	if !s.handle(event{origin: originTimer}) {
		return
	}

	for {
		select {
		case <-s.ctx.Done():
			logging.Feed().SchedulerStopped(s.ctx, s.key.String(), "stopped")
			return
		case ev := <-s.events:
			if !s.handle(ev) {
				return
			}
		}
	}
}

// handle procesa un evento. Retorna false si el loop debe terminar.
func (s *Scheduler) handle(ev event) bool {
	if s.ctx.Err() != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.config.UpdateTimeout)
	info, err := s.source.Update(ctx, s.key, ev.latest)
	cancel()

	if s.ctx.Err() != nil {
		return false
	}

	if err != nil {
		if errors.Is(err, entities.ErrNoChartInfo) {
			logging.Feed().SchedulerStopped(s.ctx, s.key.String(), "no_chart_info")
			s.sink.NoData(s.key, err)
			return false
		}
		metrics.RecordUpdateError(string(s.key.Kind), ev.origin)
		logging.WarnWithError(s.ctx, "Chart update failed, retrying on next tick", err, logging.Fields{
			"key":    s.key.String(),
			"origin": ev.origin,
		})
		return true
	}

	if info == nil {
		return true
	}

	s.sink.Publish(s.key, info)
	return true
}

func (s *Scheduler) tick() {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.offer(event{origin: originTimer})
		}
	}
}

// watchFeed reenvía las cotizaciones del feed en vivo a la cola de eventos.
// Los errores del feed no afectan a la suscripción: se registran y se reintenta.
func (s *Scheduler) watchFeed() {
	if s.feed == nil {
		return
	}

	for {
		updates, err := s.feed.Subscribe(s.ctx, s.key.AssetID, s.key.CurrencyCode)
		if err != nil {
			s.feedError("subscribe", err)
		} else {
			s.forward(updates)
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.config.FeedRetryInterval):
		}
	}
}

func (s *Scheduler) forward(updates <-chan *entities.MarketInfo) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case info, ok := <-updates:
			if !ok {
				if s.ctx.Err() == nil {
					s.feedError("closed", nil)
				}
				return
			}
			if info == nil {
				continue
			}
			s.offer(event{origin: originFeed, latest: info})
		}
	}
}

func (s *Scheduler) feedError(reason string, err error) {
	metrics.RecordSecondaryFeedError(reason)
	fields := logging.Fields{
		"key":    s.key.String(),
		"reason": reason,
	}
	if err != nil {
		fields[logging.FieldError] = err.Error()
	}
	logging.Debug(s.ctx, "Live rate feed unavailable", fields)
}

// offer encola sin bloquear; con la cola llena el evento se descarta
func (s *Scheduler) offer(ev event) {
	select {
	case s.events <- ev:
	default:
		metrics.RecordSchedulerEventDropped(ev.origin)
	}
}
