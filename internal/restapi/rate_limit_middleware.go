package restapi

import (
	"encoding/json"
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"transitmap.onebusaway.org/internal/models"
	"transitmap.onebusaway.org/internal/utils"
)

// limiterIdleTTL is how long a client's limiter survives without requests.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware provides per-client rate limiting, keyed by client IP.
// X-Forwarded-For is only consulted for requests arriving from trustedProxies.
type RateLimitMiddleware struct {
	limiters       map[string]*clientLimiter
	trustedProxies []netip.Prefix
	mu             sync.Mutex
	rateLimit      rate.Limit
	burstSize      int
	now            func() time.Time
	cleanupTick    *time.Ticker
	stop           chan struct{}
	stopOnce       sync.Once
}

// NewRateLimitMiddleware creates a new rate limiting middleware allowing
// ratePerInterval requests per interval and per client, with bursts of the
// same size. A non-positive rate disables limiting.
func NewRateLimitMiddleware(ratePerInterval int, interval time.Duration, trustedProxies ...netip.Prefix) func(http.Handler) http.Handler {
	return newRateLimiter(ratePerInterval, interval, trustedProxies).rateLimitHandler
}

func newRateLimiter(ratePerInterval int, interval time.Duration, trustedProxies []netip.Prefix) *RateLimitMiddleware {
	rateLimit := rate.Inf
	if ratePerInterval > 0 {
		rateLimit = rate.Every(interval / time.Duration(ratePerInterval))
	}

	rl := &RateLimitMiddleware{
		limiters:       make(map[string]*clientLimiter),
		trustedProxies: trustedProxies,
		rateLimit:      rateLimit,
		burstSize:      ratePerInterval,
		now:            time.Now,
		cleanupTick:    time.NewTicker(5 * time.Minute),
		stop:           make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// getLimiter gets or creates the limiter of a client
func (rl *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter
}

func (rl *RateLimitMiddleware) rateLimitHandler(next http.Handler) http.Handler {
	if rl.rateLimit == rate.Inf {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(utils.ClientIP(r, rl.trustedProxies)).Allow() {
			rl.sendRateLimitExceeded(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sendRateLimitExceeded sends a 429 Too Many Requests response
func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	retryAfter := int(math.Ceil(1 / float64(rl.rateLimit)))
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Code:        http.StatusTooManyRequests,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        "Rate limit exceeded. Please try again later.",
		Version:     2,
	})
}

// cleanup periodically removes limiters of clients that went quiet
func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimitMiddleware) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-limiterIdleTTL)
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTick.Stop()
		close(rl.stop)
	})
}
