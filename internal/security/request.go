package security

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/moto-risk/internal/errors"
)

// DefaultMaxBodyBytes bounds predict-risk request bodies
const DefaultMaxBodyBytes int64 = 16 << 10

// RequireJSON rejects requests whose declared body is not JSON
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		contentType := c.GetHeader("Content-Type")
		if contentType == "" {
			c.Next()
			return
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			errors.Respond(c, errors.NewRequestError(http.StatusUnsupportedMediaType, "Content-Type must be application/json"))
			return
		}

		c.Next()
	}
}

// MaxBodySize rejects bodies larger than limit bytes
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			errors.Respond(c, errors.NewRequestError(http.StatusRequestEntityTooLarge, "Request body too large"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
