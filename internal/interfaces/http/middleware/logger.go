package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/pkg/logger"
)

// Logger logs every HTTP request through the structured logger. The request
// id is expected to be in the request context already.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
