package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS wraps rs/cors with origins parsed from the frontend URL setting
// (comma-separated). An empty setting falls back to localhost:3000.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := parseOrigins(frontendURL)
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})
	return c.Handler
}

func parseOrigins(frontendURL string) []string {
	origins := []string{}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		exists := false
		for _, existing := range origins {
			if existing == trimmed {
				exists = true
				break
			}
		}
		if !exists {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}
