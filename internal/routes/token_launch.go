package routes

import (
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"tokenlaunch/internal/handlers"
	"tokenlaunch/internal/middleware"
)

func launchRateLimit() middleware.RateLimiterConfig {
	cfg := middleware.RateLimiterConfig{RequestsPerSecond: 0.2, Burst: 3}
	if v, err := strconv.ParseFloat(os.Getenv("LAUNCH_RATE_LIMIT_RPS"), 64); err == nil && v > 0 {
		cfg.RequestsPerSecond = v
	}
	if v, err := strconv.Atoi(os.Getenv("LAUNCH_RATE_LIMIT_BURST")); err == nil && v > 0 {
		cfg.Burst = v
	}
	return cfg
}

// SetupTokenLaunchRoutes sets up all routes related to token launches
func SetupTokenLaunchRoutes(r *gin.Engine, h *handlers.TokenLaunchHandler) {
	launches := r.Group("/token-launch")
	{
		launches.GET("", h.ListTokenLaunches)
		launches.GET("/:mint", h.GetTokenLaunch)
		launches.POST("", middleware.RateLimiterMiddleware(launchRateLimit()), h.CreateTokenLaunch)
	}
}
