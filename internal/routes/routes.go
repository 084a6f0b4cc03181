package routes

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"tokenlaunch/internal/handlers"
)

// allowedOrigins parses ALLOWED_ORIGINS, a comma-separated list such as
// "http://localhost:3000,https://app.example.com".
func allowedOrigins() map[string]bool {
	origins := make(map[string]bool)
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins[trimmed] = true
		}
	}
	return origins
}

func corsMiddleware() gin.HandlerFunc {
	allowed := allowedOrigins()

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouter returns the Gin router with all routes configured
func SetupRouter(launches *handlers.TokenLaunchHandler) *gin.Engine {
	r := gin.Default()

	r.Any("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	r.Use(corsMiddleware())

	SetupTokenLaunchRoutes(r, launches)

	return r
}
