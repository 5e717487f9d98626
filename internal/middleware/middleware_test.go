package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Payphone-Digital/learnpath/config"
	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/dto"
	"github.com/Payphone-Digital/learnpath/internal/service"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	redisclient "github.com/Payphone-Digital/learnpath/pkg/redis"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noopStore struct{}

func (noopStore) Create(context.Context, uint, string, time.Time) error { return nil }

const secret = "middleware-test-secret-32-characters!!"

func newTokens(now func() time.Time) *service.TokenService {
	return service.NewTokenService(secret, 15*time.Minute, time.Hour, noopStore{}).WithClock(now)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func protectedRouter(tokens *service.TokenService) *gin.Engine {
	m := NewJWTMiddleware(tokens)
	r := gin.New()
	r.GET("/private", m.RequireAuth(), func(c *gin.Context) {
		id, _ := UserID(c)
		ctxID, _ := ctxutil.GetUserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "ctx": ctxID, "email": c.GetString(constants.GinKeyEmail)})
	})
	r.GET("/public", m.OptionalAuth(), func(c *gin.Context) {
		_, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens := newTokens(clock)
	r := protectedRouter(tokens)

	valid, err := tokens.IssueAccessToken(7, "a@x.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, constants.MsgAuthRequired},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, constants.MsgAuthRequired},
		{"bad token", "Bearer nope", http.StatusUnauthorized, constants.MsgInvalidToken},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			if tt.message != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.message, body["error"])
				return
			}
			assert.Equal(t, float64(7), body["id"])
			assert.Equal(t, float64(7), body["ctx"])
			assert.Equal(t, "a@x.com", body["email"])
		})
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	issuer := newTokens(func() time.Time { return now })
	token, err := issuer.IssueAccessToken(7, "a@x.com")
	require.NoError(t, err)

	later := newTokens(func() time.Time { return now.Add(time.Hour) })
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedRouter(later).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, constants.MsgTokenExpired, decode(t, w)["error"])
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens(time.Now)
	r := protectedRouter(tokens)
	valid, err := tokens.IssueAccessToken(3, "b@x.com")
	require.NoError(t, err)

	for header, want := range map[string]bool{"": false, "Bearer garbage": false, "Bearer " + valid: true} {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode(t, w)["authenticated"], header)
	}
}

func validatedRouter() *gin.Engine {
	v := NewValidationMiddleware()
	r := gin.New()
	r.POST("/register", v.ValidateRequestBody(func() any { return &dto.RegisterRequest{} }), func(c *gin.Context) {
		req, ok := Validated[dto.RegisterRequest](c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": req.Email, "name": req.Name})
	})
	return r
}

func TestValidateRequestBody(t *testing.T) {
	r := validatedRouter()

	t.Run("normalizes before validating", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"email":"  Anna@X.com ","password":"Passw0rd!","name":" Anna "}`
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		got := decode(t, w)
		assert.Equal(t, "anna@x.com", got["email"])
		assert.Equal(t, "Anna", got["name"])
	})

	t.Run("field errors never echo the password", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"email":"bad","password":"short","name":"Anna"}`
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), "short")
		got := decode(t, w)
		assert.Equal(t, constants.MsgValidationFailed, got["error"])
		assert.Len(t, got["errors"], 2)
	})

	t.Run("empty body reports required fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, decode(t, w)["errors"], 3)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":`)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, constants.MsgBadRequest, decode(t, w)["error"])
	})
}

type stubWindows struct {
	count int64
	err   error
}

func (s *stubWindows) IncrWindow(context.Context, string, time.Duration) (redisclient.WindowResult, error) {
	if s.err != nil {
		return redisclient.WindowResult{}, s.err
	}
	s.count++
	return redisclient.WindowResult{Count: s.count, ResetIn: 30 * time.Second}, nil
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterWithStore(t *testing.T) {
	rule := config.RateLimitRule{Requests: 2, Window: time.Minute}
	r := limitedRouter(NewRateLimiter("login", rule, constants.MsgTooManyLogins, &stubWindows{}))

	first := hit(r)
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get(constants.HeaderXRateLimitLimit))
	assert.Equal(t, "1", first.Header().Get(constants.HeaderXRateLimitRemain))

	assert.Equal(t, http.StatusNoContent, hit(r).Code)

	blocked := hit(r)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "30", blocked.Header().Get(constants.HeaderRetryAfter))
	assert.Equal(t, "0", blocked.Header().Get(constants.HeaderXRateLimitRemain))
	assert.Equal(t, constants.MsgTooManyLogins, decode(t, blocked)["error"])
}

func TestRateLimiterFallsBackToLocal(t *testing.T) {
	rule := config.RateLimitRule{Requests: 3, Window: time.Hour}
	r := limitedRouter(NewRateLimiter("register", rule, "", &stubWindows{err: errors.New("circuit breaker is open")}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r).Code)
	}
	blocked := hit(r)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get(constants.HeaderRetryAfter))
	assert.Equal(t, constants.MsgTooManyRequests, decode(t, blocked)["error"])
}

func TestRateLimitersDisabled(t *testing.T) {
	limiters := NewRateLimiters(config.RateLimitConfig{
		Enabled: false,
		Login:   config.RateLimitRule{Requests: 1, Window: time.Hour},
	}, nil)
	r := limitedRouter(limiters.Login)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r).Code)
	}
}

func TestRequestContextMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestContextMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(constants.HeaderXRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderXRequestID, "client-req-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-req-1", w.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, constants.MsgInternalError, decode(t, w)["error"])
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithoutOriginsUsesDefault(t *testing.T) {
	for _, origins := range [][]string{nil, {}, {" ", ""}} {
		var handler gin.HandlerFunc
		require.NotPanics(t, func() { handler = CORS(origins) })

		r := gin.New()
		r.Use(handler)
		r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", config.DefaultCORSOrigin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, config.DefaultCORSOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	}
}
