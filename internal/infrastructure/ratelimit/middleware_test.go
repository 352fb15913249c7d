package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"xrates-sync-service/internal/infrastructure/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rlm := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, Capacity: 2, RefillRate: 1}, []string{"/health", "/swagger/"})
	handler := rlm.Handler(okHandler())

	call := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("/api/v1/rates/BTC/USD", "10.0.0.1").Code)
	rec := call("/api/v1/rates/BTC/USD", "10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = call("/api/v1/rates/BTC/USD", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// rutas exentas
	assert.Equal(t, http.StatusOK, call("/health", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call("/swagger/index.html", "10.0.0.1").Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	rlm := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: false}, nil)
	handler := rlm.Handler(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, false, rlm.Stats()["enabled"])
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"x-forwarded-for toma la primera", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "3.3.3.3:80", "1.1.1.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "4.4.4.4"}, "3.3.3.3:80", "4.4.4.4"},
		{"remote addr sin puerto", nil, "3.3.3.3:80", "3.3.3.3"},
		{"ipv6", nil, "[::1]:8080", "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
