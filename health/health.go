// health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/contactd/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check represents a single health probe. It should return nil if the
// dependency is healthy, or a non-nil error describing the problem.
// The ctx passed in is derived from the incoming request context.
type Check func(ctx context.Context) error

// Response is the JSON structure returned by the health handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns an http.Handler that runs the provided checks on each
// request. With no checks it behaves as a simple liveness probe
// ({"status":"ok"}). If any check fails, it responds 503 with
// {"status":"error","checks":{...}}.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		ctx := r.Context()
		results := make(map[string]string, len(checks))
		anyErr := false

		for name, check := range checks {
			if check == nil {
				results[name] = "ok"
				continue
			}
			if err := check(ctx); err != nil {
				anyErr = true
				msg := "error"
				if err.Error() != "" {
					msg = "error: " + err.Error()
				}
				results[name] = msg

				if logger != nil {
					logger.Warn("health check failed",
						zap.String("check", name),
						zap.Error(err),
					)
				}
			} else {
				results[name] = "ok"
			}
		}

		status := http.StatusOK
		resp := Response{Status: "ok", Checks: results}
		if anyErr {
			status = http.StatusServiceUnavailable
			resp.Status = "error"
		}
		httputil.WriteJSON(w, status, resp)
	})
}

// Mount attaches a GET /health route to the given chi.Router.
func Mount(r chi.Router, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, logger))
}
