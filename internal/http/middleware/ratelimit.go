package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a per-caller token bucket keyed by user id when
// authenticated, client IP otherwise. Stale buckets are dropped after an
// hour of inactivity.
type RateLimiter struct {
	perMinute int
	mutex     sync.Mutex
	buckets   map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		perMinute: perMinute,
		buckets:   make(map[string]*bucket),
	}
	go rl.evictLoop()
	return rl
}

func (rl *RateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if principal, ok := MustPrincipal(c); ok {
			key = principal.UserID.String()
		}
		if !rl.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute),
		}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mutex.Lock()
		for key, b := range rl.buckets {
			if time.Since(b.lastSeen) > time.Hour {
				delete(rl.buckets, key)
			}
		}
		rl.mutex.Unlock()
	}
}
