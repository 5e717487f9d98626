package handler

import (
	"net/http"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/dto"
	"github.com/Payphone-Digital/learnpath/internal/middleware"
	"github.com/Payphone-Digital/learnpath/internal/service"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// GetProgress serves anonymous callers the empty default.
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetProgress")

	var userID *uint
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}

	progress, err := h.progressService.GetProgress(ctx, userID)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse(progress))
}

func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CompleteLesson")

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	req, ok := validated[dto.CompleteLessonRequest](c)
	if !ok {
		return
	}

	result, err := h.progressService.CompleteLesson(ctx, userID, req.TopicID, req.LessonID)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldSuccess: true,
		constants.ResponseFieldData:    result.Progress,
		"alreadyCompleted":             result.AlreadyCompleted,
		"pointsEarned":                 result.PointsEarned,
		"streakBonus":                  result.StreakBonus,
		"newBadges":                    result.NewBadges,
	})
}

func (h *ProgressHandler) SaveQuizResult(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "SaveQuizResult")

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	req, ok := validated[dto.SaveQuizResultRequest](c)
	if !ok {
		return
	}

	result, err := h.progressService.SaveQuizResult(ctx, userID, req.TopicID, *req.Score, *req.Percentage)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldSuccess: true,
		constants.ResponseFieldData:    result.Progress,
		"pointsEarned":                 result.PointsEarned,
		"streakBonus":                  result.StreakBonus,
		"performance":                  result.Performance,
		"newBadges":                    result.NewBadges,
	})
}

func (h *ProgressHandler) Reset(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "ResetProgress")

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	progress, err := h.progressService.Reset(ctx, userID)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldSuccess: true,
		constants.ResponseFieldMessage: constants.MsgProgressReset,
		constants.ResponseFieldData:    progress,
	})
}
