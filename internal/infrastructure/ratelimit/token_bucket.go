package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL es el tiempo sin uso tras el cual se descarta el bucket de un cliente
const idleTTL = 30 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterCollection mantiene un token bucket por cliente.
// capacity es el burst y refillRate los tokens por segundo.
type RateLimiterCollection struct {
	mu              sync.Mutex
	buckets         map[string]*clientBucket
	capacity        int
	refillRate      int
	lastCleanup     time.Time
	cleanupInterval time.Duration
	now             func() time.Time
}

func NewRateLimiterCollection(capacity, refillRate int) *RateLimiterCollection {
	return &RateLimiterCollection{
		buckets:         make(map[string]*clientBucket),
		capacity:        capacity,
		refillRate:      refillRate,
		lastCleanup:     time.Now(),
		cleanupInterval: 10 * time.Minute,
		now:             time.Now,
	}
}

// Allow consume un token del cliente si hay disponible
func (rlc *RateLimiterCollection) Allow(clientID string) bool {
	now := rlc.now()
	return rlc.bucket(clientID, now).AllowN(now, 1)
}

// Tokens retorna los tokens enteros disponibles para el cliente
func (rlc *RateLimiterCollection) Tokens(clientID string) int {
	now := rlc.now()
	tokens := rlc.bucket(clientID, now).TokensAt(now)
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

func (rlc *RateLimiterCollection) bucket(clientID string, now time.Time) *rate.Limiter {
	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	b, ok := rlc.buckets[clientID]
	if !ok {
		b = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(rlc.refillRate), rlc.capacity),
		}
		rlc.buckets[clientID] = b
	}
	b.lastSeen = now

	rlc.maybeCleanup(now)
	return b.limiter
}

// maybeCleanup se llama con el lock tomado
func (rlc *RateLimiterCollection) maybeCleanup(now time.Time) {
	if now.Sub(rlc.lastCleanup) < rlc.cleanupInterval {
		return
	}

	cutoff := now.Add(-idleTTL)
	for clientID, b := range rlc.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rlc.buckets, clientID)
		}
	}
	rlc.lastCleanup = now
}

func (rlc *RateLimiterCollection) Stats() map[string]interface{} {
	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	return map[string]interface{}{
		"total_clients": len(rlc.buckets),
		"capacity":      rlc.capacity,
		"refill_rate":   rlc.refillRate,
	}
}
