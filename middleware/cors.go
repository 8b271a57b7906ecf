// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactd/config"
	"github.com/go-chi/cors"
)

// CORSForDomain returns a middleware that allows browser submissions only
// from the configured domain, over http or https. Preflight responses are
// cached for an hour.
//
// If cfg.EnableCORS is false, it returns an identity middleware that does
// nothing, so it is safe to call unconditionally:
//
//	r.Use(middleware.CORSForDomain(cfg))
func CORSForDomain(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.EnableCORS {
		// No-op middleware
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	opts := cors.Options{
		AllowedOrigins: []string{
			"http://" + cfg.Domain,
			"https://" + cfg.Domain,
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           3600,
	}

	return cors.Handler(opts)
}
