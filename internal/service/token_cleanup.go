package service

import (
	"context"
	"time"

	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
)

// ExpiredTokenPurger deletes refresh tokens that can never be used again.
type ExpiredTokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// TokenCleanup purges expired and revoked refresh tokens once at start and
// then on every interval tick until its context ends.
type TokenCleanup struct {
	purger   ExpiredTokenPurger
	interval time.Duration
}

func NewTokenCleanup(purger ExpiredTokenPurger, interval time.Duration) *TokenCleanup {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TokenCleanup{purger: purger, interval: interval}
}

// Run blocks until ctx is done. Purge failures are logged and retried on
// the next tick.
func (c *TokenCleanup) Run(ctx context.Context) error {
	ctx = ctxutil.WithFunction(ctx, "service", "TokenCleanup")

	logger.InfoWithContext(ctx, "Token cleanup scheduler started").
		String("interval", c.interval.String()).
		Log()

	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoWithContext(ctx, "Token cleanup scheduler stopped").Log()
			return nil
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge and returns the number of rows removed.
func (c *TokenCleanup) RunOnce(ctx context.Context) int64 {
	start := time.Now()
	deleted, err := c.purger.DeleteExpired(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Token cleanup failed").
			Duration(time.Since(start)).
			Err(err).
			Log()
		return 0
	}

	logger.InfoWithContext(ctx, "Token cleanup completed").
		Int64("deleted_count", deleted).
		Duration(time.Since(start)).
		Log()
	return deleted
}
