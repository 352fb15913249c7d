package multiplex

import (
	"context"
	"sync"

	"xrates-sync-service/internal/domain/entities"
)

// Subscription es el handle de un consumidor sobre el stream de una clave
type Subscription struct {
	key    entities.SubscriptionKey
	reader *reader

	detachOnce sync.Once
	onDetach   func()
	stop       chan struct{}
	latest     func() *entities.ChartInfo
}

func newSubscription(key entities.SubscriptionKey, r *reader, onDetach func()) *Subscription {
	return &Subscription{
		key:      key,
		reader:   r,
		onDetach: onDetach,
		stop:     make(chan struct{}),
	}
}

// terminatedSubscription es una suscripción que nace cerrada con err
func terminatedSubscription(key entities.SubscriptionKey, err error) *Subscription {
	r := newReader(0)
	r.terminate(err)
	sub := newSubscription(key, r, nil)
	sub.detachOnce.Do(func() {})
	return sub
}

func (s *Subscription) Key() entities.SubscriptionKey {
	return s.key
}

// Updates entrega los ChartInfo publicados después de suscribirse, sin replay.
// El buffer es acotado: si el consumidor se atrasa se descarta el valor pendiente
// más viejo, así que un lector lento ve el último estado pero no todos los intermedios.
// Se cierra cuando la suscripción termina; luego consultar Err.
func (s *Subscription) Updates() <-chan *entities.ChartInfo {
	return s.reader.ch
}

// Latest retorna el último ChartInfo que publicó el ciclo de la clave, aunque haya
// sido antes de suscribirse. nil si todavía no hubo ninguno o la suscripción nació terminada.
func (s *Subscription) Latest() *entities.ChartInfo {
	if s.latest == nil {
		return nil
	}
	return s.latest()
}

// Done se cierra cuando la suscripción termina, aunque queden valores sin leer en Updates
func (s *Subscription) Done() <-chan struct{} {
	return s.reader.done
}

// Err retorna el error terminal; nil si el stream se completó o sigue abierto
func (s *Subscription) Err() error {
	return s.reader.Err()
}

// Close desconecta al consumidor. Es idempotente y sincrónico.
func (s *Subscription) Close() {
	s.detach()
}

func (s *Subscription) detach() {
	s.detachOnce.Do(func() {
		close(s.stop)
		if s.onDetach != nil {
			s.onDetach()
		}
	})
}

// watch desconecta al consumidor cuando se cancela ctx o cuando el stream termina
func (s *Subscription) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.stop:
		return
	case <-s.reader.done:
	}
	s.detach()
}
