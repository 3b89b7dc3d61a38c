package bootstrap

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// WithCORS wraps h with the cross-origin policy for origins. A "*" entry
// opens the API to any origin; credentials are only allowed when every
// origin is explicit.
func WithCORS(h http.Handler, origins []string) http.Handler {
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")
	if wildcard {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: !wildcard,
	}).Handler(h)
}
