package router

import (
	"net/http"

	"github.com/shandysiswandi/authvault/internal/pkg/config"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
)

// middlewareMaintenance answers 503 for the routes listed in
// app.maintenance.endpoints, "*" meaning every route but /health. The list
// is read per request so it follows config reloads.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil {
				next.ServeHTTP(w, r)
				return
			}

			route := matchedRoutePath(r)
			for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
				if endpoint == route || (endpoint == "*" && route != "/health") {
					writeJSON(w, errorResponse{
						Message:   "service is under maintenance",
						ErrorCode: goerror.CodeUnavailable.String(),
					}, http.StatusServiceUnavailable)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
