// README: Request logging middleware writing one structured line per request.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"kwenda/internal/logger"
)

func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("http request", map[string]any{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"caller":     CallerUID(c),
		})
	}
}
