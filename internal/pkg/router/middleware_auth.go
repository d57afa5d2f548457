package router

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/shandysiswandi/authvault/internal/pkg/config"
	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
)

// HeaderAPIKey carries the shared key when app.server.http.api_key is set.
const HeaderAPIKey = "X-API-Key"

// middlewareAPIKey rejects requests without the configured key. The key is
// read per request, so rotating it in the config file needs no restart.
// An empty key disables the check.
func middlewareAPIKey(cfg config.Config, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var want string
			if cfg != nil {
				want = cfg.GetString("app.server.http.api_key")
			}
			if want == "" {
				next.ServeHTTP(w, r)
				return
			}

			path := matchedRoutePath(r)
			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			got := strings.TrimSpace(r.Header.Get(HeaderAPIKey))
			if got == "" {
				p := strings.Fields(r.Header.Get("Authorization"))
				if len(p) == 2 && strings.EqualFold(p[0], "Bearer") {
					got = p[1]
				}
			}

			if got == "" {
				writeJSON(w, errorResponse{Message: "Authentication required", ErrorCode: goerror.CodeUnauthorized.String()}, http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeJSON(w, errorResponse{Message: "Invalid api key", ErrorCode: goerror.CodeUnauthorized.String()}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
