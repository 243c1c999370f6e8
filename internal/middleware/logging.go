package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"lexia-go/pkg/log"
)

// RequestLogger logs one structured line per request. Request and response
// bodies are never logged: chat requests carry the caller's API key.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("http request",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
