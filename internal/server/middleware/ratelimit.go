package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/giantswarm/kubectl-gateway/internal/instrumentation"
)

const (
	// DefaultRateLimit is the default number of requests per second per client.
	DefaultRateLimit = 10

	// DefaultRateLimitBurst is the default burst size per client.
	DefaultRateLimitBurst = 20

	// limiterIdleTimeout is how long an unused client limiter is kept.
	limiterIdleTimeout = 10 * time.Minute
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second per client.
	// A zero or negative rate disables limiting.
	Rate rate.Limit

	// Burst is the number of requests a client may make at once.
	Burst int

	// ExemptPaths are never limited (health probes).
	ExemptPaths []string

	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP identify the
	// client. Only enable behind a trusted reverse proxy.
	TrustProxyHeaders bool
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client address.
type RateLimiter struct {
	config RateLimitConfig
	exempt map[string]struct{}

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a RateLimiter from config.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.Burst <= 0 {
		config.Burst = DefaultRateLimitBurst
	}

	exempt := make(map[string]struct{}, len(config.ExemptPaths))
	for _, p := range config.ExemptPaths {
		exempt[p] = struct{}{}
	}

	return &RateLimiter{
		config:  config,
		exempt:  exempt,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether a request from client may proceed. When it may not,
// it also returns how long the client should wait.
func (l *RateLimiter) Allow(client string) (bool, time.Duration) {
	if l.config.Rate <= 0 {
		return true, 0
	}

	l.mu.Lock()
	now := l.now()
	l.sweep(now)

	c, ok := l.clients[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.config.Rate, l.config.Burst)}
		l.clients[client] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	reservation := c.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}

	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops limiters that have been idle for a while. Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdleTimeout {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTimeout {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// clientKey identifies the caller of r.
func (l *RateLimiter) clientKey(r *http.Request) string {
	if l.config.TrustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects requests above the per-client rate with 429 Too Many
// Requests and a Retry-After header. Rejections are counted on provider,
// which may be nil.
func RateLimit(limiter *RateLimiter, provider *instrumentation.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := limiter.exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			allowed, wait := limiter.Allow(limiter.clientKey(r))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			provider.Metrics().RecordRateLimited(r.Context(), r.URL.Path)

			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"RATE_LIMIT_EXCEEDED","message":"too many requests, retry later","retryable":true}`))
		})
	}
}
