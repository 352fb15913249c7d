package multiplex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
)

// ErrClosed se devuelve a las suscripciones abiertas después de Shutdown
var ErrClosed = errors.New("multiplexer closed")

// keyState es el registro de una clave activa: su broadcast, su driver y el conteo de lectores.
// latest guarda el último ChartInfo publicado; no se reenvía por el broadcast.
type keyState struct {
	key     entities.SubscriptionKey
	channel *broadcast
	driver  Driver
	refs    int
	latest  atomic.Pointer[entities.ChartInfo]
}

// Multiplexer comparte un único ciclo de sincronización por clave entre todos sus suscriptores.
// Toda transición del registro (alta, conteo, baja, marca de fallo) ocurre bajo mu.
type Multiplexer struct {
	mu      sync.Mutex
	entries map[entities.SubscriptionKey]*keyState
	closed  bool

	failed    *FailureMemo
	newDriver DriverFactory
	config    Config
}

func New(factory DriverFactory, config Config) *Multiplexer {
	return &Multiplexer{
		entries:   make(map[entities.SubscriptionKey]*keyState),
		failed:    NewFailureMemo(),
		newDriver: factory,
		config:    config.withDefaults(),
	}
}

// Subscribe retorna el stream de ChartInfo de la clave. Cancelar ctx equivale a Close.
// Una clave inválida o marcada como sin datos produce una suscripción ya terminada.
func (m *Multiplexer) Subscribe(ctx context.Context, key entities.SubscriptionKey) *Subscription {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := key.Validate(); err != nil {
		return terminatedSubscription(key, err)
	}

	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		return terminatedSubscription(key, ErrClosed)
	}

	if m.failed.IsFailed(key) {
		m.mu.Unlock()
		metrics.RecordFastFail(string(key.Kind))
		return terminatedSubscription(key, fmt.Errorf("%w: %s", entities.ErrNoChartInfo, key))
	}

	st, ok := m.entries[key]
	if !ok {
		st = &keyState{
			key:     key,
			channel: newBroadcast(key.Kind, m.config.SubscriberBuffer),
		}
		st.driver = m.newDriver(key, &stateSink{m: m, st: st})
		m.entries[key] = st
	}

	r := st.channel.attach()
	st.refs++
	refs := st.refs
	if refs == 1 {
		st.driver.Start()
	}
	metrics.UpdateActiveSubscriptions(key.String(), refs)

	m.mu.Unlock()

	logging.Feed().SubscriptionOpened(ctx, key.String(), refs)

	sub := newSubscription(key, r, func() { m.detach(st, r) })
	sub.latest = st.latest.Load
	go sub.watch(ctx)
	return sub
}

// detach da de baja un lector. El último lector de un registro vigente lo limpia.
func (m *Multiplexer) detach(st *keyState, r *reader) {
	m.mu.Lock()
	st.channel.detach(r)
	st.refs--
	refs := st.refs
	cleanup := refs == 0 && m.entries[st.key] == st
	if cleanup {
		delete(m.entries, st.key)
	}
	metrics.UpdateActiveSubscriptions(st.key.String(), refs)
	m.mu.Unlock()

	logging.Feed().SubscriptionClosed(context.Background(), st.key.String(), refs)

	if cleanup {
		m.release(st)
		metrics.RecordSchedulerCleanup()
	}
}

// fail marca la clave como sin datos, quita el registro y propaga el error a sus lectores
func (m *Multiplexer) fail(st *keyState, err error) {
	m.mu.Lock()
	first := m.failed.MarkFailed(st.key)
	if m.entries[st.key] == st {
		delete(m.entries, st.key)
	}
	m.mu.Unlock()

	if first {
		logging.Feed().KeyBlacklisted(context.Background(), st.key.String(), err)
	}

	if !errors.Is(err, entities.ErrNoChartInfo) {
		err = fmt.Errorf("%w: %v", entities.ErrNoChartInfo, err)
	}
	st.channel.fail(err)
	st.driver.Stop()
}

// release corre fuera de mu. Stop sólo cancela y no espera: el Update en curso del
// driver viejo puede solaparse con el primero de un driver nuevo para la misma clave,
// pero lo que publique llega únicamente a su propio broadcast, ya completado.
func (m *Multiplexer) release(st *keyState) {
	st.driver.Stop()
	st.channel.complete()
}

// IsFailed indica si la clave está marcada como sin datos
func (m *Multiplexer) IsFailed(key entities.SubscriptionKey) bool {
	return m.failed.IsFailed(key)
}

// KeyStats describe una clave activa
type KeyStats struct {
	Key         string `json:"key"`
	Subscribers int    `json:"subscribers"`
}

// Stats es una foto del registro
type Stats struct {
	Active []KeyStats `json:"active"`
	Failed []string   `json:"failed"`
}

func (m *Multiplexer) Stats() Stats {
	m.mu.Lock()
	active := make([]KeyStats, 0, len(m.entries))
	for key, st := range m.entries {
		active = append(active, KeyStats{Key: key.String(), Subscribers: st.refs})
	}
	m.mu.Unlock()

	sort.Slice(active, func(i, j int) bool { return active[i].Key < active[j].Key })

	failedKeys := m.failed.Keys()
	failed := make([]string, 0, len(failedKeys))
	for _, k := range failedKeys {
		failed = append(failed, k.String())
	}

	return Stats{Active: active, Failed: failed}
}

// Shutdown detiene todos los drivers y cierra todos los streams con ErrClosed
func (m *Multiplexer) Shutdown() {
	m.mu.Lock()
	m.closed = true
	states := make([]*keyState, 0, len(m.entries))
	for key, st := range m.entries {
		states = append(states, st)
		delete(m.entries, key)
	}
	m.mu.Unlock()

	for _, st := range states {
		st.driver.Stop()
		st.channel.fail(ErrClosed)
	}

	logging.Info(context.Background(), "Multiplexer shut down", logging.Fields{
		"released_keys": len(states),
	})
}

// stateSink ata los resultados de un driver a su registro. Un driver viejo
// nunca toca el registro que lo reemplazó.
type stateSink struct {
	m  *Multiplexer
	st *keyState
}

func (s *stateSink) Publish(key entities.SubscriptionKey, info *entities.ChartInfo) {
	s.st.latest.Store(info)
	n := s.st.channel.publish(info)
	if n == 0 {
		return
	}
	metrics.RecordUpdatePublished(string(key.Kind))
	logging.Feed().UpdatePublished(context.Background(), key.String(), len(info.Points), n)
}

func (s *stateSink) NoData(_ entities.SubscriptionKey, err error) {
	s.m.fail(s.st, err)
}
