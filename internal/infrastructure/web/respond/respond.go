package respond

import (
	"encoding/json"
	"net/http"

	"xrates-sync-service/internal/application/dto"
	"xrates-sync-service/internal/infrastructure/logging"
)

// JSON escribe data como JSON con el status indicado
func JSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(r.Context(), "Failed to encode JSON response", err, logging.Fields{
			logging.FieldHTTPStatusCode: statusCode,
		})
	}
}

// Error escribe un dto.ErrorResponse
func Error(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	JSON(w, r, statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}
