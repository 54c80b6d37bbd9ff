package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdle = 5 * time.Minute

type (
	clientLimiter struct {
		limiter *rate.Limiter
		expires time.Time
	}

	// RateLimiter hands out one token bucket per client IP.
	RateLimiter struct {
		limit rate.Limit
		burst int
		now   func() time.Time

		mu      sync.Mutex
		clients map[string]*clientLimiter
	}
)

func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(perMinute/2, 1),
		now:     time.Now,
		clients: map[string]*clientLimiter{},
	}
}

// Allow takes a token from the bucket of key.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for k, c := range r.clients {
		if now.After(c.expires) {
			delete(r.clients, k)
		}
	}

	c, ok := r.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = c
	}
	c.expires = now.Add(limiterIdle)
	return c.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"message": "error", "error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
