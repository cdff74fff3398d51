package router

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpmail/internal/pkg/ratelimit"
)

const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimit counts every request against the client IP and rejects the ones
// over quota with 429. A limiter failure lets the request through.
func RateLimit(limiter ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				slog.ErrorContext(r.Context(), "rate limiter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			reset := strconv.Itoa(ceilSeconds(res.ResetAfter))
			w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(res.Limit))
			w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
			w.Header().Set(HeaderRateLimitReset, reset)

			if !res.Allowed {
				w.Header().Set(HeaderRetryAfter, reset)
				writeError(w, http.StatusTooManyRequests, "Too many email requests, please try again later.", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// clientIP returns the address resolved by the IP middleware, without a port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
