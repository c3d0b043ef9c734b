package middleware

import (
	"time"

	"sitedocs/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one structured log event per request at debug
// level: method, status, latency, client IP and path.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !logger.IsDebugEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		event := logger.L().Debug().
			Str("method", c.Request.Method).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("path", path)
		if rawQuery != "" {
			event = event.Str("query", rawQuery)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}
