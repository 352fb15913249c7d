package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"xrates-sync-service/internal/infrastructure/logging"
)

var suspiciousPatterns = []string{
	"../",
	"<script",
	"union select",
	"drop table",
	"exec(",
	"eval(",
}

// LoggingMiddleware complementa al tracing: headers relevantes en debug y
// detección de requests sospechosos
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		logging.HTTP().RequestReceived(ctx, r.Method, r.URL.Path, r.UserAgent(), remoteIP(r))
		logging.Debug(ctx, "Processing HTTP request", logging.Fields{
			"headers": importantHeaders(r),
			"query":   r.URL.RawQuery,
		})

		if isSuspiciousRequest(r) {
			logging.Security().SuspiciousActivity(ctx, remoteIP(r), "unusual_request_pattern")
		}

		next.ServeHTTP(w, r)
	})
}

func importantHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)
	for _, name := range []string{"Accept", "Upgrade", "X-Forwarded-For", "X-Real-IP"} {
		if value := r.Header.Get(name); value != "" {
			headers[name] = value
		}
	}
	return headers
}

func isSuspiciousRequest(r *http.Request) bool {
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}
	target := strings.ToLower(r.URL.Path + "?" + query)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(target, pattern) {
			return true
		}
	}
	return r.ContentLength > 1024*1024
}
