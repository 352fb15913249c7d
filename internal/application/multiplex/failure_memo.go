package multiplex

import (
	"sort"
	"sync"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/metrics"
)

// FailureMemo recuerda las claves para las que la fuente respondió "sin datos".
// Solo crece: no hay TTL ni API de borrado, una clave marcada falla rápido
// durante toda la vida del proceso.
type FailureMemo struct {
	mu   sync.RWMutex
	keys map[entities.SubscriptionKey]struct{}
}

func NewFailureMemo() *FailureMemo {
	return &FailureMemo{keys: make(map[entities.SubscriptionKey]struct{})}
}

// MarkFailed registra la clave. Retorna true solo la primera vez.
func (f *FailureMemo) MarkFailed(key entities.SubscriptionKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.keys[key]; ok {
		return false
	}
	f.keys[key] = struct{}{}
	metrics.UpdateFailedKeys(len(f.keys))
	return true
}

func (f *FailureMemo) IsFailed(key entities.SubscriptionKey) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.keys[key]
	return ok
}

func (f *FailureMemo) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.keys)
}

// Keys retorna una copia ordenada de las claves marcadas
func (f *FailureMemo) Keys() []entities.SubscriptionKey {
	f.mu.RLock()
	out := make([]entities.SubscriptionKey, 0, len(f.keys))
	for k := range f.keys {
		out = append(out, k)
	}
	f.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
