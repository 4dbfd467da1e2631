// Package middleware holds gin middleware shared by the HTTP routes.
package middleware

import (
	"net/http"
	"sync"

	"github.com/atomichabits/internal/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// MsgThrottled is returned with 429 responses.
const MsgThrottled = "Request was throttled."

// maxTrackedClients 超过后清空限流表，防止无限增长
const maxTrackedClients = 10000

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= maxTrackedClients {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the gin middleware.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP()
		if !rl.getLimiter(key).Allow() {
			logger.Warn("rate limit exceeded", "client", key, "path", c.Request.URL.Path, "method", c.Request.Method)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": MsgThrottled})
			return
		}
		c.Next()
	}
}
