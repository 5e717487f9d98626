package middleware

import (
	"net/http"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/gin-gonic/gin"
)

const slowRequestThreshold = 2 * time.Second

// LoggingMiddleware writes one access log line per request with a level
// chosen from the status code. Request bodies are never logged.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		ctx := c.Request.Context()

		var entry *logger.ContextLogBuilder
		switch {
		case status >= http.StatusInternalServerError:
			entry = logger.ErrorWithContext(ctx, "Server error")
		case status >= http.StatusBadRequest:
			entry = logger.WarnWithContext(ctx, "Client error")
		case latency > slowRequestThreshold:
			entry = logger.WarnWithContext(ctx, "Slow request")
		default:
			entry = logger.InfoWithContext(ctx, "Request completed")
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		entry.Method(c.Request.Method).
			Path(path).
			StatusCode(status).
			Int("response_size", c.Writer.Size()).
			Duration(latency)
		if len(c.Errors) > 0 {
			entry.String("gin_errors", c.Errors.String())
		}
		entry.Log()
	}
}

// RecoveryMiddleware turns a panic into a 500 with the standard envelope.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.LogPanic(recovered)
		abortWithError(c, http.StatusInternalServerError, constants.MsgInternalError, nil, nil)
	})
}
