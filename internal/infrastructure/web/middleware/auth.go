package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"xrates-sync-service/internal/infrastructure/config"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/web/respond"
)

// AuthMiddleware valida la API key en el header configurado
type AuthMiddleware struct {
	config config.AuthConfig
}

func NewAuthMiddleware(config config.AuthConfig) *AuthMiddleware {
	return &AuthMiddleware{config: config}
}

func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !am.config.Enabled || am.isUnauthenticatedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get(am.config.HeaderName)
		// los clientes de navegador no pueden mandar headers en el upgrade del WebSocket
		if apiKey == "" && strings.HasSuffix(r.URL.Path, "/stream") {
			apiKey = r.URL.Query().Get("api_key")
		}

		switch {
		case apiKey == "":
			am.reject(w, r, "API key missing", "API_KEY_MISSING")
			return
		case !am.isValidAPIKey(apiKey):
			am.reject(w, r, "Invalid API key", "API_KEY_INVALID")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isUnauthenticatedPath acepta rutas exactas y prefijos terminados en "/"
func (am *AuthMiddleware) isUnauthenticatedPath(path string) bool {
	for _, unauthPath := range am.config.UnauthPaths {
		if path == unauthPath {
			return true
		}
		if strings.HasSuffix(unauthPath, "/") && strings.HasPrefix(path, unauthPath) {
			return true
		}
	}
	return false
}

func (am *AuthMiddleware) isValidAPIKey(providedKey string) bool {
	return subtle.ConstantTimeCompare([]byte(providedKey), []byte(am.config.APIKey)) == 1
}

func (am *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, message, code string) {
	logging.Security().Unauthorized(r.Context(), remoteIP(r), r.URL.Path)

	w.Header().Set("WWW-Authenticate", `ApiKey header="`+am.config.HeaderName+`"`)
	respond.Error(w, r, http.StatusUnauthorized, code, message)
}
