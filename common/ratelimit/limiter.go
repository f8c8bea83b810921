package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the result of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the window admits another request
}

// Limiter provides per-user, per-action rate limiting using Redis + Lua.
// The check and the record happen inside a single script, so a burst of
// concurrent requests from one user cannot slip past the limit.
type Limiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// NewLimiter creates a new rate limiter with the embedded Lua script
func NewLimiter(redisClient *redis.Client, logger Logger) *Limiter {
	return &Limiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// CheckGlobalLimit checks the global service-wide rate limit
func (l *Limiter) CheckGlobalLimit(ctx context.Context, limit int64) (*Result, error) {
	key := "rate_limit:global"
	return l.checkAndRecord(ctx, key, limit, time.Minute)
}

// CheckUserAction checks and records one action for a user within a
// sliding window, e.g. ("user-123", "comment", 10, time.Hour)
func (l *Limiter) CheckUserAction(ctx context.Context, userID, action string, limit int64, window time.Duration) (*Result, error) {
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID, action)
	return l.checkAndRecord(ctx, key, limit, window)
}

// checkAndRecord executes the rate limit Lua script
func (l *Limiter) checkAndRecord(ctx context.Context, key string, limit int64, window time.Duration) (*Result, error) {
	now := time.Now().UnixMilli()
	member := uuid.New().String()

	result, err := l.script.Run(ctx, l.redis, []string{key},
		limit, int64(window.Seconds()), now, member).Result()
	if err != nil {
		l.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// Parse result array: {allowed, current_count, limit, retry_after}
	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	res := &Result{
		Allowed:           resultArray[0].(int64) == 1,
		CurrentCount:      resultArray[1].(int64),
		Limit:             resultArray[2].(int64),
		RetryAfterSeconds: resultArray[3].(int64),
	}

	if !res.Allowed {
		l.logger.Warn("rate limit exceeded",
			"key", key,
			"current", res.CurrentCount,
			"limit", res.Limit,
			"retry_after", res.RetryAfterSeconds)
	} else {
		l.logger.Debug("rate limit check passed",
			"key", key,
			"current", res.CurrentCount,
			"limit", res.Limit)
	}

	return res, nil
}

// CurrentCount returns the live count in the window without recording
func (l *Limiter) CurrentCount(ctx context.Context, userID, action string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID, action)
	cutoff := time.Now().Add(-window).UnixMilli()
	count, err := l.redis.ZCount(ctx, key, fmt.Sprintf("%d", cutoff), "+inf").Result()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Reset clears a user's counter for an action (for testing/admin)
func (l *Limiter) Reset(ctx context.Context, userID, action string) error {
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID, action)
	return l.redis.Del(ctx, key).Err()
}
