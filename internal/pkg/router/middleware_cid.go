package router

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/shandysiswandi/authvault/internal/pkg/instrument"
	"github.com/shandysiswandi/authvault/internal/pkg/uid"
)

const (
	// HeaderCorrelationID carries the id logged as _cID and echoed on every response.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is read when a proxy sets it instead of HeaderCorrelationID.
	HeaderRequestID = "X-Request-ID"

	maxCIDLength = 128
)

// cidHeaders are tried in order before a new id is generated.
var cidHeaders = []string{HeaderCorrelationID, HeaderRequestID}

// cleanCID trims v and cuts it to maxCIDLength. Values with control
// characters are dropped so they cannot split log lines or headers.
func cleanCID(v string) string {
	if strings.IndexFunc(v, unicode.IsControl) >= 0 {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCIDLength {
		v = v[:maxCIDLength]
	}
	return v
}

// incomingCID returns the first usable upstream id and the header it came from.
func incomingCID(r *http.Request) (cid, source string) {
	for _, h := range cidHeaders {
		if cid = cleanCID(r.Header.Get(h)); cid != "" {
			return cid, h
		}
	}
	return "", ""
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid, source := incomingCID(r)
			if cid == "" && gen != nil {
				cid, source = gen.Generate(), "generated"
			}
			if cid == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := instrument.SetCorrelationID(r.Context(), cid)
			slog.DebugContext(ctx, "correlation id assigned", "cid_source", source)

			w.Header().Set(HeaderCorrelationID, cid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
