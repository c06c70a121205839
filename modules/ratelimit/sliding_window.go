// Package ratelimit provides a Redis-backed sliding window rate limiter for
// the HTTP API.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
	// RetryAfter is only set when the request was denied.
	RetryAfter time.Duration
}

// slidingWindowScript trims the window, counts what is left and records the
// request when there is room. It returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_ms)
		redis.call('PEXPIRE', counter_key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_after = 0
	if #oldest >= 2 then
		retry_after = tonumber(oldest[2]) + window_ms - now
	end
	return {0, 0, retry_after}
`)

// SlidingWindowLimiter counts requests per key in a Redis sorted set.
type SlidingWindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Limit returns the request budget per window.
func (l *SlidingWindowLimiter) Limit() int {
	return l.limit
}

// Allow records a request for key and reports whether it fits the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()
	redisKey := l.prefix + key

	vals, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script result length: %d", len(vals))
	}

	res := &Result{
		Allowed:   vals[0] == 1,
		Remaining: int(vals[1]),
		Limit:     l.limit,
		ResetAt:   now.Add(l.window),
	}
	if !res.Allowed && vals[2] > 0 {
		res.RetryAfter = time.Duration(vals[2]) * time.Millisecond
		res.ResetAt = now.Add(res.RetryAfter)
	}
	return res, nil
}

// Reset clears the window for key.
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	redisKey := l.prefix + key
	return l.client.Del(ctx, redisKey, redisKey+":counter").Err()
}
