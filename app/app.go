// app/app.go
package app

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/contactd/config"
	"github.com/dalemusser/contactd/contact"
	"github.com/dalemusser/contactd/health"
	"github.com/dalemusser/contactd/httputil"
	"github.com/dalemusser/contactd/logging"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/middleware"
	"github.com/dalemusser/contactd/router"
	"github.com/dalemusser/contactd/server"
)

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load config
//  3. Build final logger from config
//  4. Register default metrics
//  5. Open the contact store and ensure its schema
//  6. Wire shutdown signals to a context
//  7. Build the HTTP handler (router + middleware + routes)
//  8. Start the HTTP(S) server and block until shutdown
func Run(ctx context.Context) error {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()

	cfg, err := config.Load(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		os.Exit(1)
	}
	bootstrap.Info("config loaded",
		zap.String("env", cfg.Env),
		zap.String("domain", cfg.Domain),
		zap.String("db_path", cfg.DBPath),
	)

	logger := logging.MustBuildLogger(cfg.LogLevel, cfg.Env)
	defer logger.Sync()
	httputil.SetLogger(logger)

	metrics.RegisterDefault(logger)

	store, err := contact.Open(cfg.DBPath, cfg.DBConnectTimeout)
	if err != nil {
		logger.Error("contact store open failed", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	schemaCtx, cancelSchema := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancelSchema()
	if err := store.EnsureSchema(schemaCtx); err != nil {
		logger.Error("contact schema ensure failed", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler := BuildHandler(cfg, store, logger)

	if err := server.ListenAndServeWithContext(ctx, cfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// BuildHandler assembles the full route tree: the base middleware chain,
// CORS for the configured domain, per-IP rate limiting (health and metrics
// exempt), and the contact, health, and metrics endpoints.
func BuildHandler(cfg *config.Config, store *contact.Store, logger *zap.Logger) http.Handler {
	r := router.New(cfg, logger)

	r.Use(middleware.CORSForDomain(cfg))
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
		Skip: func(req *http.Request) bool {
			return req.URL.Path == "/health" || req.URL.Path == "/metrics"
		},
	}))

	guard := contact.NewGuard(cfg.Domain, cfg.RequireOrigin)
	contactHandler := contact.NewHandler(store, guard, logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireJSON())
		r.Post("/contact", contactHandler.Submit)
	})

	health.Mount(r, map[string]health.Check{
		"sqlite": store.Ping,
	}, logger)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
