package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP. Idle clients expire
// from the LRU after ten minutes.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per client with a burst of the
// same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](10000, nil, 10*time.Minute),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters.Get(key)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
	}
	// re-adding refreshes the expiry
	rl.limiters.Add(key, l)
	rl.mu.Unlock()
	return l.Allow()
}

// RateLimitMiddleware limits by client. perMinute <= 0 disables it. Mount it
// after APIKeyAuth so forwarded identities from authenticated callers count.
func RateLimitMiddleware(perMinute int, open ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(open))
	for _, p := range open {
		skip[p] = true
	}
	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		limiter := NewRateLimiter(perMinute)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey is the bucket for r. A caller that passed APIKeyAuth (the
// gateway) speaks for many users, so its X-Forwarded-For client gets its own
// bucket; without one the key itself is the bucket. Everyone else is limited
// by remote address, and their forwarded headers are ignored.
func clientKey(r *http.Request) string {
	if _, ok := r.Context().Value(APIKeyKey).(string); ok {
		if fwd := forwardedClient(r); fwd != "" {
			return "fwd:" + fwd
		}
		return "svc"
	}
	return "ip:" + ClientIP(r)
}

func forwardedClient(r *http.Request) string {
	fwd := r.Header.Get("X-Forwarded-For")
	if i := strings.IndexByte(fwd, ','); i >= 0 {
		fwd = fwd[:i]
	}
	return strings.TrimSpace(fwd)
}

// ClientIP is the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
