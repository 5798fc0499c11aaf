package restapi

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORSMiddleware allows the listed origins to call the API. With no
// origins configured only same-origin pages can use it.
func NewCORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         86400,
	})
}
