package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kampayn/kampayn-be/internal/logger"
)

// Limiter counts failed attempts per key in fixed windows
type Limiter interface {
	// Allowed reports whether key still has attempts left in current window
	Allowed(ctx context.Context, key string) bool

	// Fail records one failed attempt
	Fail(ctx context.Context, key string)

	// Reset forgets failed attempts of the key
	Reset(ctx context.Context, key string)
}

// Noop never limits
type Noop struct{}

func (Noop) Allowed(context.Context, string) bool { return true }
func (Noop) Fail(context.Context, string)         {}
func (Noop) Reset(context.Context, string)        {}

const keyPrefix = "kampayn:login-fail:"

type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Redis limiter fails open: when redis is not reachable every attempt is allowed
type Redis struct {
	client      redis.UniversalClient
	maxAttempts int64
	window      time.Duration
	logger      logger.Logger
}

func NewRedis(client redis.UniversalClient, cfg Config, l logger.Logger) (*Redis, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", cfg.MaxAttempts)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", cfg.Window)
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Redis{
		client:      client,
		maxAttempts: int64(cfg.MaxAttempts),
		window:      cfg.Window,
		logger:      l,
	}, nil
}

func (r *Redis) Allowed(ctx context.Context, key string) bool {
	n, err := r.client.Get(ctx, keyPrefix+key).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return true
	case err != nil:
		r.logger.Warn("Login throttle unavailable", "error", err)
		return true
	default:
		return n < r.maxAttempts
	}
}

func (r *Redis) Fail(ctx context.Context, key string) {
	k := keyPrefix + key

	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		r.logger.Warn("Login throttle unavailable", "error", err)
		return
	}

	// First failure opens the window
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			r.logger.Warn("Login throttle unavailable", "error", err)
		}
	}
}

func (r *Redis) Reset(ctx context.Context, key string) {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		r.logger.Warn("Login throttle unavailable", "error", err)
	}
}
