package security

import (
	"os"

	"github.com/gin-gonic/gin"
)

// HeadersMiddleware adds security headers suited to a JSON API
func HeadersMiddleware() gin.HandlerFunc {
	hsts := os.Getenv("ENABLE_HSTS") == "true"

	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")

		// Only behind TLS
		if hsts {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
