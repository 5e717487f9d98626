package router

import (
	"github.com/Payphone-Digital/learnpath/internal/dto"
	"github.com/gin-gonic/gin"
)

func (r *Router) authRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/register",
			r.limiters.Register.Handler(),
			r.validMw.ValidateRequestBody(func() any { return &dto.RegisterRequest{} }),
			r.authHandler.Register)
		auth.POST("/login",
			r.limiters.Login.Handler(),
			r.validMw.ValidateRequestBody(func() any { return &dto.LoginRequest{} }),
			r.authHandler.Login)
		auth.POST("/refresh",
			r.validMw.ValidateRequestBody(func() any { return &dto.RefreshTokenRequest{} }),
			r.authHandler.RefreshToken)
		auth.POST("/logout", r.authHandler.Logout)

		// Protected routes (JWT authentication required)
		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("/me", r.authHandler.Me)
			protected.PUT("/update-profile",
				r.validMw.ValidateRequestBody(func() any { return &dto.UpdateProfileRequest{} }),
				r.authHandler.UpdateProfile)
			protected.POST("/logout-all", r.authHandler.LogoutAll)
			protected.GET("/sessions", r.authHandler.Sessions)
		}
	}
}
