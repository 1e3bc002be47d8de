package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	window   time.Duration
	message  string
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per window for each client, all of which
// may be spent at once.
func NewRateLimiter(requests int, window time.Duration, message string) *RateLimiter {
	if requests < 1 {
		requests = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		window:   window,
		message:  message,
		now:      time.Now,
	}
}

// GeneralLimiter covers the whole API: 100 requests per 15 minutes.
func GeneralLimiter() *RateLimiter {
	return NewRateLimiter(100, 15*time.Minute, "too many requests, please try again later")
}

// AuthLimiter covers login: 5 attempts per 15 minutes.
func AuthLimiter() *RateLimiter {
	return NewRateLimiter(5, 15*time.Minute, "too many login attempts, please try again later")
}

// CreationLimiter covers content creation: 50 per hour.
func CreationLimiter() *RateLimiter {
	return NewRateLimiter(50, time.Hour, "too many submissions, please try again later")
}

// Allow reports whether key may proceed now, consuming a token if so.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Handler rejects over-limit clients with 429.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(rl.limit))))
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			abortJSON(c, http.StatusTooManyRequests, rl.message)
			return
		}
		c.Next()
	}
}

// Cleanup forgets clients idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// StartCleanup forgets clients idle for a whole window, checking every
// interval until stop is closed. A client idle that long has a full bucket
// again, so dropping it changes no decision.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(rl.window)
			case <-stop:
				return
			}
		}
	}()
}
