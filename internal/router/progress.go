package router

import (
	"github.com/Payphone-Digital/learnpath/internal/dto"
	"github.com/gin-gonic/gin"
)

func (r *Router) progressRoutes(rg *gin.RouterGroup) {
	progress := rg.Group("/user-progress")
	{
		// Anonymous callers get the empty default
		progress.GET("", r.jwtMw.OptionalAuth(), r.progressHandler.GetProgress)

		protected := progress.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.POST("/complete-lesson",
				r.validMw.ValidateRequestBody(func() any { return &dto.CompleteLessonRequest{} }),
				r.progressHandler.CompleteLesson)
			protected.POST("/save-quiz-result",
				r.limiters.Quiz.Handler(),
				r.validMw.ValidateRequestBody(func() any { return &dto.SaveQuizResultRequest{} }),
				r.progressHandler.SaveQuizResult)
			protected.POST("/reset", r.progressHandler.Reset)
		}
	}
}
