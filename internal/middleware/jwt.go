package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/Payphone-Digital/learnpath/internal/service"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/gin-gonic/gin"
)

type JWTMiddleware struct {
	tokens *service.TokenService
}

func NewJWTMiddleware(tokens *service.TokenService) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens}
}

// RequireAuth validates the bearer access token and attaches its claims to
// the request. Every failure is a 401.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tokenString, ok := bearerToken(c.GetHeader(constants.HeaderAuthorization))
		if !ok {
			logger.WarnWithContext(ctx, "Missing or malformed Authorization header").
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				Log()
			abortWithError(c, http.StatusUnauthorized, constants.MsgAuthRequired, nil, nil)
			return
		}

		claims, err := m.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			message := constants.MsgInvalidToken
			if errors.Is(err, apperrors.ErrTokenExpired) {
				message = constants.MsgTokenExpired
			}
			logger.WarnWithContext(ctx, "Access token rejected").
				Path(c.Request.URL.Path).
				String("reason", message).
				Log()
			abortWithError(c, http.StatusUnauthorized, message, nil, nil)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func (m *JWTMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader(constants.HeaderAuthorization))
		if !ok {
			c.Next()
			return
		}

		claims, err := m.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			logger.DebugWithContext(c.Request.Context(), "Optional auth ignored invalid token").Err(err).Log()
			c.Next()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setClaims(c *gin.Context, claims *service.AccessClaims) {
	c.Set(constants.GinKeyUserID, claims.UserID)
	c.Set(constants.GinKeyEmail, claims.Email)
	c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), claims.UserID))
}

// UserID returns the authenticated user id set by the auth gates.
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(constants.GinKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
