package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/Payphone-Digital/learnpath/pkg/tracing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// RequestContextMiddleware seeds the request context with the request id,
// trace id, client ip and start time read by the context logger. A
// client supplied X-Request-ID is kept when it is reasonably sized.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Header(constants.HeaderXRequestID, requestID)

		ctx := ctxutil.NewRequestContext(c.Request.Context(), c.Request, c.ClientIP())
		ctx = ctxutil.WithRequestID(ctx, requestID)
		if traceID := tracing.TraceID(ctx); traceID != "" {
			ctx = ctxutil.WithTraceID(ctx, traceID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestTimeoutMiddleware bounds the request context. Store calls observe
// the deadline through their context.
func RequestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() != nil && !c.Writer.Written() {
			logger.WarnWithContext(ctx, "Request timed out").Duration(timeout).Log()
			abortWithError(c, http.StatusServiceUnavailable, "Request timeout", nil, nil)
		}
	}
}

// SecurityHeaders sets the baseline response headers for a JSON API.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
