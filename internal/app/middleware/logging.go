package middleware

import (
	"net/http"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code for
// the access-log line; streaming handlers need Flush to pass through so SSE
// chunks are not buffered.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Logging logs a request/response pair the way the original's
// LogRequestsMiddleware does: a debug line on arrival, an info line with
// status and duration on completion.
func Logging(log *logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := GetRequestID(r.Context())

			log.Debug("request received",
				"request_id", requestID,
				"client_ip", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
			)

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			log.Info("request completed",
				"request_id", requestID,
				"status", wrapped.status,
				"duration_seconds", time.Since(start).Seconds(),
			)
		})
	}
}
