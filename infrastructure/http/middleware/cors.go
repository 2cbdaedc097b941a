package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the configured origins. An empty list disables cross-origin access.
func CORS(origins []string, allowCredentials bool, correlationHeader string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		// rs/cors reads an empty list as "*"
		return func(next http.Handler) http.Handler { return next }
	}
	if correlationHeader == "" {
		correlationHeader = CorrelationIDHeader
	}
	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", correlationHeader},
		ExposedHeaders:   []string{correlationHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:           600,
		AllowCredentials: allowCredentials,
	})

	return handler.Handler
}
