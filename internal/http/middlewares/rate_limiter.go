package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// staleAfter controls when an idle client's bucket is dropped during cleanup.
const staleAfter = 10 * time.Minute

type bucket struct {
	tokens int
	last   time.Time
}

// RateLimiter is a simple per-IP token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	rate    int // tokens refilled per second
	burst   int
	buckets map[string]*bucket
	sweep   time.Time
}

func NewRateLimiter(rate, burst int) *RateLimiter {
	return &RateLimiter{
		rate:    rate,
		burst:   burst,
		buckets: make(map[string]*bucket),
		sweep:   time.Now(),
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		now := time.Now()

		b, exists := rl.buckets[ip]
		if !exists {
			b = &bucket{tokens: rl.burst, last: now}
			rl.buckets[ip] = b
		}

		elapsed := now.Sub(b.last)
		b.last = now

		b.tokens += int(elapsed.Seconds()) * rl.rate
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}

		if b.tokens <= 0 {
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		b.tokens--

		// Periodically drop buckets for IPs that went quiet, so the map
		// does not grow without bound.
		if now.Sub(rl.sweep) > staleAfter {
			for addr, bk := range rl.buckets {
				if now.Sub(bk.last) > staleAfter {
					delete(rl.buckets, addr)
				}
			}
			rl.sweep = now
		}

		rl.mu.Unlock()

		c.Next()
	}
}
