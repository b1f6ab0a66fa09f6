package middleware

import (
	"net/http"
	"time"

	"github.com/halcyonhq/beacon/pkg/contextkeys"
	"github.com/halcyonhq/beacon/pkg/observability"
)

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger installs a request-scoped logger on the context and emits a
// structured access log line when the request completes. No request body or
// session token ever reaches the log.
func RequestLogger(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestLogger := logger
			if requestID := contextkeys.GetRequestID(r.Context()); requestID != "" {
				requestLogger = logger.WithField("request_id", requestID)
			}
			ctx := observability.WithLogger(r.Context(), requestLogger)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			requestLogger.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			}).Info("request completed")
		})
	}
}
