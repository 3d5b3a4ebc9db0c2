package middleware

import (
	"net"
	"net/http"
	"strings"

	"eventia/backend/internal/rate"
)

// RateLimit refuses requests once the caller's bucket in limiter is empty.
// Authenticated callers are keyed by user id, anonymous ones by client IP.
func RateLimit(name string, limiter *rate.KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(name + ":" + callerKey(r)) {
				rateLimitedTotal.WithLabelValues(name).Inc()
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + userID
	}
	return "ip:" + ClientIP(r)
}

// ClientIP strips the port from RemoteAddr. chi's RealIP middleware runs first
// and rewrites RemoteAddr from proxy headers.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
