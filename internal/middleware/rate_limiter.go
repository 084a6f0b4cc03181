package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures rate limiting behavior
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops a client's limiter after this long without requests.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterMap stores rate limiters per client IP
type rateLimiterMap struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	config  RateLimiterConfig
	now     func() time.Time
}

func newRateLimiterMap(config RateLimiterConfig) *rateLimiterMap {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &rateLimiterMap{
		clients: make(map[string]*clientLimiter),
		config:  config,
		now:     time.Now,
	}
}

// getLimiter returns or creates the limiter for ip
func (rl *rateLimiterMap) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.clients[ip]
	if !exists {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		}
		rl.clients[ip] = client
	}
	client.lastSeen = rl.now()
	return client.limiter
}

// evictIdle removes limiters of clients that have gone quiet.
func (rl *rateLimiterMap) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.IdleTTL)
	for ip, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiterMap) cleanup() {
	ticker := time.NewTicker(rl.config.IdleTTL)
	defer ticker.Stop()

	for range ticker.C {
		rl.evictIdle()
	}
}

// RateLimiterMiddleware limits requests per client IP.
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	limiterMap := newRateLimiterMap(config)
	go limiterMap.cleanup()

	return func(c *gin.Context) {
		limiter := limiterMap.getLimiter(c.ClientIP())

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := reservation.DelayFrom(time.Now()).Seconds()
			reservation.Cancel()

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
