package middleware

import (
	"net/http"
	"os"
	"strconv"
)

const (
	corsDefaultMaxAge  = "86400"
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowedHeaders = "Content-Type, Authorization, X-Requested-With, Accept, Origin"
)

// CORSMiddleware stamps CORS headers on every response and answers preflight
// requests directly. The admin frontend is served from a different origin
// than the API, so the allowed origin is configurable via CORS_ALLOWED_ORIGIN
// and defaults to any.
func CORSMiddleware() func(http.Handler) http.Handler {
	origin := os.Getenv("CORS_ALLOWED_ORIGIN")
	if origin == "" {
		origin = "*"
	}
	maxAge := getCORSMaxAge()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getCORSMaxAge reads CORS_MAX_AGE, falling back to one day when it is unset
// or not a number
func getCORSMaxAge() string {
	value := os.Getenv("CORS_MAX_AGE")
	if _, err := strconv.Atoi(value); err != nil {
		return corsDefaultMaxAge
	}
	return value
}
