package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/vtk-it/declaro/internal/config"
)

const keyLoginAttempt = "login:attempt:%s"

// LoginLimiter throttles credential checks per client address. It is only
// constructed when rate limiting is configured; a nil limiter allows
// everything.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewLoginLimiter(cfg config.Config) (*LoginLimiter, error) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.RateLimitRedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if cfg.LoginRate <= 0 || cfg.LoginBurst <= 0 {
		return nil, errors.New("login rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RateLimitRedisPassword),
		DB:       cfg.RateLimitRedisDB,
	})

	return &LoginLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.LoginRate,
		burst:  cfg.LoginBurst,
	}, nil
}

// Allow reports whether another login attempt from addr may proceed.
// Redis being down fails open: logins keep working without throttling.
func (l *LoginLimiter) Allow(ctx context.Context, addr string) (bool, error) {
	if l == nil {
		return true, nil
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyLoginAttempt, addr), l.rate, l.burst)
	if err != nil {
		return true, err
	}
	return res.Allowed, nil
}
