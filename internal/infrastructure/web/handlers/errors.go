package handlers

import (
	"errors"
	"net/http"

	"xrates-sync-service/internal/application/dto"
	"xrates-sync-service/internal/application/multiplex"
	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/provider"
)

// Códigos de error expuestos en las respuestas y en los frames de streaming
const (
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeNoChartInfo      = "NO_CHART_INFO"
	CodeNoData           = "NO_DATA"
	CodeNotConfigured    = "NOT_CONFIGURED"
	CodeTimeout          = "TIMEOUT"
	CodeShuttingDown     = "SHUTTING_DOWN"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// classify traduce un error de dominio o de proveedor a status HTTP y código
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, entities.ErrInvalidKey), errors.Is(err, dto.ErrInvalidRequest):
		return http.StatusBadRequest, CodeInvalidParameter
	case errors.Is(err, entities.ErrNoChartInfo):
		return http.StatusNotFound, CodeNoChartInfo
	case errors.Is(err, provider.ErrNoData):
		return http.StatusNotFound, CodeNoData
	case errors.Is(err, provider.ErrNotConfigured):
		return http.StatusNotImplemented, CodeNotConfigured
	case errors.Is(err, multiplex.ErrClosed):
		return http.StatusServiceUnavailable, CodeShuttingDown
	case errors.Is(err, provider.ErrRetryableRequest), errors.Is(err, provider.ErrNonRetryable):
		return http.StatusBadGateway, CodeUpstreamError
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}
