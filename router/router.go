// router/router.go
package router

import (
	"github.com/dalemusser/contactd/config"
	"github.com/dalemusser/contactd/logging"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router pre-wired with the standard middleware stack:
// - RequestID
// - RealIP
// - Recoverer (panic → 500)
// - body size limit (MaxRequestBodyBytes)
// - security headers
// - metrics HTTP middleware
// - request logging
// - NotFound / MethodNotAllowed JSON handlers
// CORS and rate limiting are wired at app level so config decides them.
func New(cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Request context & safety
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	// Body size limit (if configured)
	r.Use(middleware.LimitBodySize(cfg.MaxRequestBodyBytes))

	r.Use(middleware.SecureHeaders())

	// Metrics
	r.Use(metrics.HTTPMetrics)

	// Access logging
	r.Use(logging.RequestLogger(logger))

	// NotFound / MethodNotAllowed JSON handlers
	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
