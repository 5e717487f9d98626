package middleware

import (
	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/gin-gonic/gin"
)

// abortWithError stops the chain and writes the failure envelope. details
// are dropped in release mode.
func abortWithError(c *gin.Context, status int, message string, fieldErrors any, details any) {
	if gin.Mode() == gin.ReleaseMode {
		details = nil
	}
	c.AbortWithStatusJSON(status, constants.BuildErrorResponse(message, fieldErrors, details))
}
