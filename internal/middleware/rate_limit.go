package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Payphone-Digital/learnpath/config"
	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	redisclient "github.com/Payphone-Digital/learnpath/pkg/redis"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// WindowStore counts hits in shared fixed windows.
type WindowStore interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (redisclient.WindowResult, error)
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP. With a store it counts in
// Redis fixed windows; when the store is absent or failing it falls back to
// a token bucket per IP held in this process.
type RateLimiter struct {
	name    string
	rule    config.RateLimitRule
	message string
	store   WindowStore

	mu        sync.Mutex
	local     map[string]*localLimiter
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(name string, rule config.RateLimitRule, message string, store WindowStore) *RateLimiter {
	if message == "" {
		message = constants.MsgTooManyRequests
	}
	return &RateLimiter{
		name:    name,
		rule:    rule,
		message: message,
		store:   store,
		local:   make(map[string]*localLimiter),
		now:     time.Now,
	}
}

// Handler returns the gin middleware enforcing the rule.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rule.Requests <= 0 || rl.rule.Window <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, remaining, retryAfter := rl.take(c.Request.Context(), ip)

		c.Header(constants.HeaderXRateLimitLimit, strconv.Itoa(rl.rule.Requests))
		c.Header(constants.HeaderXRateLimitRemain, strconv.Itoa(remaining))

		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header(constants.HeaderRetryAfter, strconv.Itoa(secs))

			logger.WarnWithContext(c.Request.Context(), "Rate limit exceeded").
				String("limiter", rl.name).
				String("client_ip", ip).
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				Int("max_requests", rl.rule.Requests).
				Log()
			abortWithError(c, http.StatusTooManyRequests, rl.message, nil, nil)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) take(ctx context.Context, ip string) (bool, int, time.Duration) {
	if rl.store != nil {
		key := constants.KeyRateLimitPrefix + rl.name + ":" + ip
		res, err := rl.store.IncrWindow(ctx, key, rl.rule.Window)
		if err == nil {
			remaining := rl.rule.Requests - int(res.Count)
			if remaining < 0 {
				remaining = 0
			}
			return res.Count <= int64(rl.rule.Requests), remaining, res.ResetIn
		}
		logger.DebugWithContext(ctx, "Rate limit store unavailable, using local limiter").
			String("limiter", rl.name).
			Err(err).
			Log()
	}
	return rl.takeLocal(ip)
}

func (rl *RateLimiter) takeLocal(ip string) (bool, int, time.Duration) {
	now := rl.now()
	every := rl.rule.Window / time.Duration(rl.rule.Requests)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	entry, ok := rl.local[ip]
	if !ok {
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Every(every), rl.rule.Requests)}
		rl.local[ip] = entry
	}
	entry.lastSeen = now

	if !entry.limiter.AllowN(now, 1) {
		return false, 0, every
	}
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, 0
}

// sweep drops limiters idle for a full window. Must hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.rule.Window {
		return
	}
	rl.lastSweep = now
	for ip, entry := range rl.local {
		if now.Sub(entry.lastSeen) >= rl.rule.Window {
			delete(rl.local, ip)
		}
	}
}

// RateLimiters groups the limiters used by the route table.
type RateLimiters struct {
	General  *RateLimiter
	Login    *RateLimiter
	Register *RateLimiter
	Quiz     *RateLimiter
}

// NewRateLimiters builds every limiter from cfg. store may be nil. When
// rate limiting is disabled the limiters let everything through.
func NewRateLimiters(cfg config.RateLimitConfig, store WindowStore) *RateLimiters {
	rule := func(r config.RateLimitRule) config.RateLimitRule {
		if !cfg.Enabled {
			return config.RateLimitRule{}
		}
		return r
	}
	return &RateLimiters{
		General:  NewRateLimiter("general", rule(cfg.General), constants.MsgTooManyRequests, store),
		Login:    NewRateLimiter("login", rule(cfg.Login), constants.MsgTooManyLogins, store),
		Register: NewRateLimiter("register", rule(cfg.Register), constants.MsgTooManyRegisters, store),
		Quiz:     NewRateLimiter("quiz", rule(cfg.Quiz), constants.MsgTooManyQuizzes, store),
	}
}
