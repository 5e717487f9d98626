package router

import (
	"github.com/Payphone-Digital/learnpath/config"
	"github.com/Payphone-Digital/learnpath/internal/handler"
	"github.com/Payphone-Digital/learnpath/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Router struct {
	authHandler     *handler.AuthHandler
	progressHandler *handler.ProgressHandler
	healthHandler   *handler.HealthHandler

	validMw  *middleware.ValidationMiddleware
	jwtMw    *middleware.JWTMiddleware
	limiters *middleware.RateLimiters
	Config   *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	progress *handler.ProgressHandler,
	health *handler.HealthHandler,

	validMw *middleware.ValidationMiddleware,
	jwtMw *middleware.JWTMiddleware,
	limiters *middleware.RateLimiters,
	config *config.Config,
) *Router {
	return &Router{
		authHandler:     auth,
		progressHandler: progress,
		healthHandler:   health,

		validMw:  validMw,
		jwtMw:    jwtMw,
		limiters: limiters,
		Config:   config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	if r.Config.Tracing.Enabled {
		router.Use(otelgin.Middleware(r.Config.Tracing.ServiceName))
	}
	router.Use(middleware.RequestContextMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(r.Config.CORS.Origins))
	router.Use(middleware.RequestTimeoutMiddleware(r.Config.App.Timeout))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"success": false, "error": "Route not found"})
	})

	api := router.Group("/api")
	{
		r.healthRoutes(api)

		limited := api.Group("")
		limited.Use(r.limiters.General.Handler())
		{
			r.authRoutes(limited)
			r.progressRoutes(limited)
		}
	}

	return router
}

func (r *Router) healthRoutes(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("", r.healthHandler.BasicHealth)
		health.GET("/ready", r.healthHandler.Ready)
	}
}
