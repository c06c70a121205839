package ratelimit

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds rate limiter configuration.
type Config struct {
	// Enabled turns the limiter on. A disabled module hands out no middleware.
	Enabled bool

	// RedisAddr is the Redis server address (e.g., "localhost:6379")
	RedisAddr string

	// RedisPassword is the Redis authentication password (optional)
	RedisPassword string

	// Limit is the maximum number of requests allowed per key in Window
	Limit int

	// Window is the sliding window length
	Window time.Duration

	// KeyPrefix is the prefix for Redis keys (default: "ratelimit:")
	KeyPrefix string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		RedisAddr: "localhost:6379",
		Limit:     100,
		Window:    time.Hour,
		KeyPrefix: "ratelimit:",
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// WithEnabled switches the limiter on or off.
func WithEnabled(enabled bool) Option {
	return func(c *Config) {
		c.Enabled = enabled
	}
}

// WithRedisAddr sets the Redis server address.
func WithRedisAddr(addr string) Option {
	return func(c *Config) {
		c.RedisAddr = addr
	}
}

// WithRedisPassword sets the Redis authentication password.
func WithRedisPassword(password string) Option {
	return func(c *Config) {
		c.RedisPassword = password
	}
}

// WithLimit sets the request budget per window.
func WithLimit(limit int, window time.Duration) Option {
	return func(c *Config) {
		c.Limit = limit
		c.Window = window
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// EnvOptions reads RATE_LIMIT_ENABLED, RATE_LIMIT_REQUESTS,
// RATE_LIMIT_WINDOW_SECONDS, REDIS_ADDR and REDIS_PASSWORD.
// Unset or malformed values keep the defaults.
func EnvOptions() []Option {
	var opts []Option

	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("Ignoring invalid RATE_LIMIT_ENABLED", "value", v)
		} else {
			opts = append(opts, WithEnabled(enabled))
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		opts = append(opts, WithRedisAddr(v))
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		opts = append(opts, WithRedisPassword(v))
	}

	def := DefaultConfig()
	limit := positiveEnv("RATE_LIMIT_REQUESTS", def.Limit)
	seconds := positiveEnv("RATE_LIMIT_WINDOW_SECONDS", int(def.Window.Seconds()))
	opts = append(opts, WithLimit(limit, time.Duration(seconds)*time.Second))

	return opts
}

func positiveEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("Ignoring invalid rate limit setting", "key", key, "value", v)
		return fallback
	}
	return n
}
