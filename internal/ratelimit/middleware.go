package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware runs the sliding-window check before the wrapped handler. A
// request without a client address cannot be fingerprinted and is refused
// outright.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := ClientAddress(r)
		if addr == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request has no client address"})
			return
		}

		now := time.Now().UTC()
		allowed, retryAfter := l.Admit(Fingerprint(addr), now)
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":               "too many requests",
				"retry_after_seconds": seconds,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientAddress resolves the originating client address, preferring the
// first X-Forwarded-For hop over the transport peer.
func ClientAddress(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			addr := strings.TrimSpace(parts[0])
			if addr != "" {
				return addr
			}
		}
	}

	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
