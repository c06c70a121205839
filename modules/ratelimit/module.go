package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module provides rate limiting middleware for the HTTP API as a mono module.
type Module struct {
	config     Config
	client     *redis.Client
	middleware *Middleware
	logger     *slog.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a rate limiting module configured from the environment.
func NewModule() *Module {
	return NewModuleWithOptions(EnvOptions()...)
}

// NewModuleWithOptions creates a rate limiting module from DefaultConfig
// plus opts. The Redis client connects lazily, so the middleware is usable
// as soon as the module exists.
func NewModuleWithOptions(opts ...Option) *Module {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := &Module{
		config: config,
		logger: slog.Default().With("module", "rate-limiter"),
	}
	if !config.Enabled {
		return m
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	limiter := NewSlidingWindowLimiter(m.client, config.Limit, config.Window, config.KeyPrefix)
	m.middleware = NewMiddleware(limiter, m.logger)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rate-limiter"
}

// Start checks the Redis connection. An unreachable Redis is logged but not
// fatal; requests pass unthrottled until it comes back.
func (m *Module) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.Info("Rate limiting disabled")
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.client.Ping(pingCtx).Err(); err != nil {
		m.logger.Warn("Redis unreachable, rate limiting will fail open",
			"redis", m.config.RedisAddr,
			"error", err)
	}

	m.logger.Info("Rate limiting started",
		"redis", m.config.RedisAddr,
		"limit", m.config.Limit,
		"window", m.config.Window)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Error("Failed to close Redis connection", "error", err)
			return err
		}
	}
	m.logger.Info("Rate limiting stopped")
	return nil
}

// Health reports Redis reachability. A disabled limiter is always healthy.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if !m.config.Enabled {
		return mono.HealthStatus{Healthy: true, Message: "disabled"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"limit":          m.config.Limit,
			"window_seconds": m.config.Window.Seconds(),
		},
	}
}

// GetMiddleware returns the rate limiting middleware, or nil when disabled.
func (m *Module) GetMiddleware() *Middleware {
	return m.middleware
}
