package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/learnpath/config"
	"github.com/Payphone-Digital/learnpath/pkg/circuit"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fixedWindowScript counts a hit in the current window and starts the
// window's expiry on its first hit. Returns {count, pttl_ms}.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// WindowResult is the state of one fixed rate-limit window.
type WindowResult struct {
	Count   int64
	ResetIn time.Duration
}

// Client wraps go-redis behind the circuit breaker so a failing Redis is
// skipped quickly instead of slowing every request.
type Client struct {
	rdb     redis.UniversalClient
	breaker *circuit.Breaker
}

func NewClient(cfg *config.Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	client := NewFromUniversal(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		logger.GetLogger().Error("Failed to connect to Redis",
			zap.String("address", cfg.RedisAddress()),
			zap.Error(err),
		)
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.GetLogger().Info("Successfully connected to Redis",
		zap.String("address", cfg.RedisAddress()),
		zap.Int("database", cfg.Redis.Database),
	)

	return client, nil
}

// NewFromUniversal wraps an existing go-redis client.
func NewFromUniversal(rdb redis.UniversalClient) *Client {
	return &Client{
		rdb:     rdb,
		breaker: circuit.NewBreaker("redis", circuit.DefaultConfig(), logger.GetLogger()),
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Breaker exposes the breaker state for readiness reporting.
func (c *Client) Breaker() *circuit.Breaker {
	return c.breaker
}

// IncrWindow records one hit for key in a fixed window of the given length.
// It returns circuit.ErrCircuitOpen without touching Redis while the breaker
// is open.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (WindowResult, error) {
	var result WindowResult

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		vals, err := fixedWindowScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
		if err != nil {
			return err
		}
		if len(vals) != 2 {
			return fmt.Errorf("unexpected window script result: %v", vals)
		}
		result = WindowResult{
			Count:   vals[0],
			ResetIn: time.Duration(vals[1]) * time.Millisecond,
		}
		return nil
	})
	return result, err
}
