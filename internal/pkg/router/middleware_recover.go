package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/authvault/internal/pkg/goerror"
	"github.com/shandysiswandi/authvault/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into the internal error envelope.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel compared by identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := debug.Stack()
			attrs := []any{"because", rvr, "method", r.Method, "route", matchedRoutePath(r)}
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				attrs = append(attrs, "stack", paths)
			} else {
				attrs = append(attrs, "stack", string(stack))
			}
			//nolint:contextcheck // request context carries the correlation id
			slog.ErrorContext(r.Context(), "panic while serving request", attrs...)

			writeJSON(w, errorResponse{
				Message:   "Internal server error",
				ErrorCode: goerror.CodeInternal.String(),
			}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
