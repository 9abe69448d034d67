package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/swhesong/deeplx-gateway/internal/core/ports"
	"github.com/swhesong/deeplx-gateway/internal/logger"
)

// RateLimit wires component D (ports.RateLimiter) into the HTTP boundary,
// keying per-client admission on the client IP the way the original's
// RateLimiter.acquire(client_ip) does: the X-Forwarded-For header value
// when present, otherwise the host part of the remote address.
func RateLimit(limiter ports.RateLimiter, log *logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIPOf(r)
			result := limiter.Allow(clientIP)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				log.Warn("rate limit exceeded",
					"client_ip", clientIP,
					"method", r.Method,
					"path", r.URL.Path,
					"reason", result.Reason,
				)
				w.Header().Set("Retry-After", "60")
				http.Error(w, result.Reason, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIPOf(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
