package handler

import (
	"net/http"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/dto"
	"github.com/Payphone-Digital/learnpath/internal/service"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates an account and signs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	req, ok := validated[dto.RegisterRequest](c)
	if !ok {
		return
	}

	response, err := h.authService.Register(ctx, *req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").Err(err).Log()
		respondError(c, ctx, err)
		return
	}

	logger.InfoWithContext(ctx, "User registered successfully").
		Uint("user_id", response.User.ID).
		Log()

	c.JSON(http.StatusCreated, response)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	req, ok := validated[dto.LoginRequest](c)
	if !ok {
		return
	}

	response, err := h.authService.Login(ctx, *req)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.authService.Me(ctx, userID)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldSuccess: true,
		"user":                         profile,
	})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateProfile")

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	req, ok := validated[dto.UpdateProfileRequest](c)
	if !ok {
		return
	}

	profile, err := h.authService.UpdateProfile(ctx, userID, *req)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	logger.InfoWithContext(ctx, "Profile updated").Uint("user_id", userID).Log()

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldSuccess: true,
		constants.ResponseFieldMessage: constants.MsgProfileUpdated,
		"user":                         profile,
	})
}

// RefreshToken exchanges a refresh token for a new access token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "RefreshToken")

	req, ok := validated[dto.RefreshTokenRequest](c)
	if !ok {
		return
	}

	response, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").Err(err).Log()
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout always succeeds. A missing or unreadable body just means there is
// nothing to revoke.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.DebugWithContext(ctx, "Logout without a readable body").Err(err).Log()
	}

	h.authService.Logout(ctx, req.RefreshToken)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLoggedOut))
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "LogoutAll")

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	count, err := h.authService.LogoutAll(ctx, userID)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldSuccess: true,
		constants.ResponseFieldMessage: constants.MsgLoggedOutAll,
		"revokedCount":                 count,
	})
}

// Sessions lists the caller's active refresh tokens without their values.
func (h *AuthHandler) Sessions(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Sessions")

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sessions, err := h.authService.ActiveSessions(ctx, userID)
	if err != nil {
		respondError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldSuccess: true,
		"sessions":                     sessions,
	})
}
