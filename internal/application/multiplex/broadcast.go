package multiplex

import (
	"sync"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/metrics"
)

// reader es el extremo de lectura de un suscriptor dentro de un broadcast
type reader struct {
	ch   chan *entities.ChartInfo
	done chan struct{}

	mu   sync.Mutex
	err  error
	once sync.Once
}

func newReader(size int) *reader {
	return &reader{
		ch:   make(chan *entities.ChartInfo, size),
		done: make(chan struct{}),
	}
}

// terminate cierra el reader una sola vez registrando el error terminal (nil = completado)
func (r *reader) terminate(err error) {
	r.once.Do(func() {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		close(r.done)
		close(r.ch)
	})
}

func (r *reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// broadcast reparte cada ChartInfo publicado a todos los readers conectados.
// Sin replay: un reader solo ve lo publicado después de conectarse.
// Un reader lento pierde el valor más viejo de su buffer, nunca bloquea al publicador.
type broadcast struct {
	kind       entities.SeriesKind
	bufferSize int

	mu      sync.Mutex
	readers map[*reader]struct{}
	closed  bool
	err     error
}

func newBroadcast(kind entities.SeriesKind, bufferSize int) *broadcast {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &broadcast{
		kind:       kind,
		bufferSize: bufferSize,
		readers:    make(map[*reader]struct{}),
	}
}

// attach conecta un reader nuevo. Si el broadcast ya terminó, el reader nace cerrado.
func (b *broadcast) attach() *reader {
	r := newReader(b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		r.terminate(b.err)
		return r
	}
	b.readers[r] = struct{}{}
	return r
}

// detach desconecta un reader sin afectar a los demás
func (b *broadcast) detach(r *reader) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.readers, r)
	r.terminate(nil)
}

func (b *broadcast) publish(info *entities.ChartInfo) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	for r := range b.readers {
		select {
		case r.ch <- info:
			continue
		default:
		}

		// Buffer lleno: descartar el más viejo y reintentar
		select {
		case <-r.ch:
			metrics.RecordSubscriberDrop(string(b.kind))
		default:
		}
		select {
		case r.ch <- info:
		default:
			metrics.RecordSubscriberDrop(string(b.kind))
		}
	}
	return len(b.readers)
}

// fail entrega el error terminal a todos los readers y cierra el broadcast
func (b *broadcast) fail(err error) {
	b.terminate(err)
}

// complete cierra el broadcast sin error
func (b *broadcast) complete() {
	b.terminate(nil)
}

func (b *broadcast) terminate(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.err = err
	for r := range b.readers {
		r.terminate(err)
	}
	b.readers = make(map[*reader]struct{})
}

func (b *broadcast) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.readers)
}

func (b *broadcast) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
