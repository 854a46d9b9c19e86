package server

import (
	"net/http"

	"github.com/go-chi/cors"
)

// corsMaxAge is how long browsers may cache a preflight answer, in seconds.
const corsMaxAge = 300

// corsMiddleware answers preflight requests and sets CORS headers for the
// allowed origins. "*" allows any origin and "https://*.example.com" style
// wildcards are supported. An empty list disables CORS headers entirely.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", authHeader, "x_auth_token"},
		MaxAge:         corsMaxAge,
	})
}
