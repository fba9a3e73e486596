package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/secbot/secbot/internal/models"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller, refilled at
// limitPerMinute/60 tokens per second with a burst of limitPerMinute.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    int
	every    rate.Limit
	lastScan time.Time
}

func NewRateLimiter(limitPerMinute int) *RateLimiter {
	if limitPerMinute <= 0 {
		limitPerMinute = 60
	}
	return &RateLimiter{
		clients:  make(map[string]*clientLimiter),
		limit:    limitPerMinute,
		every:    rate.Limit(float64(limitPerMinute) / 60),
		lastScan: time.Now(),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastScan) > limiterIdleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastScan = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Allow reports whether key may make a request now and, if not, how long it
// should wait.
func (rl *RateLimiter) Allow(key string) (remaining int, retryAfter time.Duration, ok bool) {
	lim := rl.limiter(key)
	res := lim.Reserve()
	if d := res.Delay(); d > 0 {
		res.Cancel()
		return 0, d, false
	}
	return int(math.Max(0, math.Floor(lim.Tokens()))), 0, true
}

// RateLimit limits callers identified by apiKeyHeader, or by remote IP when
// the header is absent.
func RateLimit(limitPerMinute int, apiKeyHeader string) func(http.Handler) http.Handler {
	rl := NewRateLimiter(limitPerMinute)
	limit := strconv.Itoa(rl.limit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				key = clientIP(r)
			}

			remaining, retryAfter, ok := rl.Allow(key)
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				secs := int(math.Ceil(retryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				models.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
