package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/halcyonhq/beacon/pkg/httputil"
	"github.com/halcyonhq/beacon/pkg/observability"
)

// Recovery converts handler panics into generic 500 responses. The panic
// value and stack go to the log, never to the client.
func Recovery(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithFields(map[string]interface{}{
						"panic": rec,
						"path":  r.URL.Path,
						"stack": string(debug.Stack()),
					}).Error("handler panicked")
					httputil.WriteInternalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
