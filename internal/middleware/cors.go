package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/Payphone-Digital/learnpath/config"
	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured front-end origins. A "*" entry allows any
// origin without credentials. Blank entries are ignored and an empty list
// falls back to config.DefaultCORSOrigin.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{constants.HeaderAuthorization, constants.HeaderContentType, constants.HeaderXRequestID, "X-Requested-With"},
		ExposeHeaders:    []string{constants.HeaderXRequestID, constants.HeaderXRateLimitLimit, constants.HeaderXRateLimitRemain, constants.HeaderRetryAfter},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cors.New(cfg)
		}
		allowed = append(allowed, o)
	}
	if len(allowed) == 0 {
		logger.WarnWithContext(context.Background(), "No CORS origins configured, using default").
			String("origin", config.DefaultCORSOrigin).
			Log()
		allowed = []string{config.DefaultCORSOrigin}
	}
	cfg.AllowOrigins = allowed
	return cors.New(cfg)
}
