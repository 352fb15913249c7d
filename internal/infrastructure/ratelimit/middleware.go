package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"xrates-sync-service/internal/infrastructure/config"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
	"xrates-sync-service/internal/infrastructure/web/respond"
)

// RateLimitMiddleware limita requests por IP de cliente
type RateLimitMiddleware struct {
	limiter   *RateLimiterCollection
	skipPaths []string
	enabled   bool
}

func NewRateLimitMiddleware(cfg config.RateLimitConfig, skipPaths []string) *RateLimitMiddleware {
	var limiter *RateLimiterCollection
	if cfg.Enabled {
		limiter = NewRateLimiterCollection(cfg.Capacity, cfg.RefillRate)
	}

	return &RateLimitMiddleware{
		limiter:   limiter,
		skipPaths: skipPaths,
		enabled:   cfg.Enabled,
	}
}

func (rlm *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rlm.enabled || rlm.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		clientID := ClientIP(r)
		allowed := rlm.limiter.Allow(clientID)
		metrics.RecordRateLimitResult(allowed)

		if !allowed {
			logging.Security().RateLimitExceeded(r.Context(), clientID, r.URL.Path)

			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			respond.Error(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "rate limit exceeded, retry later")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rlm.limiter.Tokens(clientID)))
		next.ServeHTTP(w, r)
	})
}

func (rlm *RateLimitMiddleware) skip(path string) bool {
	for _, p := range rlm.skipPaths {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

func (rlm *RateLimitMiddleware) Stats() map[string]interface{} {
	if rlm.limiter == nil {
		return map[string]interface{}{"enabled": false}
	}
	stats := rlm.limiter.Stats()
	stats["enabled"] = rlm.enabled
	return stats
}

// ClientIP toma la primera IP de X-Forwarded-For, luego X-Real-IP y por último RemoteAddr sin puerto
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
