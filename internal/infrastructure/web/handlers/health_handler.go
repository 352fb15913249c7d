package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"xrates-sync-service/internal/application/dto"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/web/respond"
)

const readinessTimeout = 2 * time.Second

// Pinger es una dependencia verificable en el readiness check (cache, store)
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler maneja los endpoints de health check
type HealthHandler struct {
	dependencies map[string]Pinger
	now          func() time.Time
}

func NewHealthHandler(dependencies map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		dependencies: dependencies,
		now:          time.Now,
	}
}

// Health godoc
// @Summary Liveness check
// @Description Responds as long as the process is serving HTTP. Does not check dependencies.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, dto.HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Services:  map[string]string{"service": "running"},
	})
}

// Ready godoc
// @Summary Readiness check
// @Description Pings the cache and the chart store. Returns 503 if any of them fails.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.dependencies[name].Ping(ctx); err != nil {
			logging.WarnWithError(ctx, "Readiness dependency failed", err, logging.Fields{
				"dependency": name,
			})
			services[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		services[name] = "ready"
	}

	status, code := "ready", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respond.JSON(w, r, code, dto.HealthResponse{
		Status:    status,
		Timestamp: h.now().UTC(),
		Services:  services,
	})
}
