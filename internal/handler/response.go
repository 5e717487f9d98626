package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/Payphone-Digital/learnpath/internal/middleware"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError maps err to its status and writes the failure envelope.
// The wrapped cause is exposed as details outside release mode only.
func respondError(c *gin.Context, ctx context.Context, err error) {
	status := apperrors.ToHTTPStatus(err)

	var fields any
	if fe := apperrors.GetFieldErrors(err); len(fe) > 0 {
		fields = fe
	}

	var details any
	if gin.Mode() != gin.ReleaseMode {
		if de := apperrors.GetDomainError(err); de != nil && de.Err != nil {
			details = de.Err.Error()
		} else if de == nil {
			details = err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorWithContext(ctx, "Request failed").StatusCode(status).Err(err).Log()
	}

	c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), fields, details))
}

// requireUser reads the authenticated user id; it writes a 401 and returns
// false when the auth gate did not run.
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgAuthRequired, nil, nil))
		return 0, false
	}
	return userID, true
}

// validated reads the request body stored by the validation middleware.
func validated[T any](c *gin.Context) (*T, bool) {
	req, ok := middleware.Validated[T](c)
	if !ok {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil, nil))
		return nil, false
	}
	return req, true
}
