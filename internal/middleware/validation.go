package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/Payphone-Digital/learnpath/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies read for validation.
const maxBodyBytes = 1 << 20

// Normalizer is implemented by requests that trim or lowercase input
// before validation.
type Normalizer interface {
	Normalize()
}

type ValidationMiddleware struct {
	validate *validator.Validate
}

func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{validate: validation.New()}
}

// ValidateRequestBody decodes the JSON body into the value returned by
// factory, normalizes and validates it, and stores it for the handler.
// An empty body is validated as the zero value so required fields are
// reported individually.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() any) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
			if err != nil {
				logger.ErrorWithContext(ctx, "Failed to read request body").Path(c.Request.URL.Path).Err(err).Log()
				abortWithError(c, http.StatusBadRequest, constants.MsgBadRequest, nil, nil)
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		request := factory()
		if len(bytes.TrimSpace(bodyBytes)) > 0 {
			if err := json.Unmarshal(bodyBytes, request); err != nil {
				logger.WarnWithContext(ctx, "Malformed JSON body").
					Path(c.Request.URL.Path).
					Int("body_size", len(bodyBytes)).
					Err(err).
					Log()
				abortWithError(c, http.StatusBadRequest, constants.MsgBadRequest, nil, err.Error())
				return
			}
		}

		if n, ok := request.(Normalizer); ok {
			n.Normalize()
		}

		if err := m.validate.Struct(request); err != nil {
			fields := validation.FieldErrors(err)
			logger.WarnWithContext(ctx, "Request validation failed").
				Path(c.Request.URL.Path).
				Int("error_count", len(fields)).
				Log()
			abortWithError(c, http.StatusBadRequest, constants.MsgValidationFailed, fields, nil)
			return
		}

		c.Set(constants.GinKeyValidated, request)
		c.Next()
	}
}

// Validated returns the request stored by ValidateRequestBody.
func Validated[T any](c *gin.Context) (*T, bool) {
	v, exists := c.Get(constants.GinKeyValidated)
	if !exists {
		return nil, false
	}
	req, ok := v.(*T)
	return req, ok
}
