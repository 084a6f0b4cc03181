package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/token-launch", RateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/token-launch", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.2"))
}

func TestEvictIdle(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := newRateLimiterMap(RateLimiterConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	now = now.Add(30 * time.Second)
	rl.getLimiter("b")
	now = now.Add(45 * time.Second)

	rl.evictIdle()
	assert.NotContains(t, rl.clients, "a")
	assert.Contains(t, rl.clients, "b")
}
