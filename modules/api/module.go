package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	identitydomain "github.com/example/task-marketplace/domain/identity"
	"github.com/example/task-marketplace/modules/identity"
	"github.com/example/task-marketplace/modules/notification"
	"github.com/example/task-marketplace/modules/ratelimit"
	"github.com/example/task-marketplace/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const defaultPort = 3000

// APIModule is the HTTP API module.
type APIModule struct {
	app             *fiber.App
	port            int
	allowedOrigins  string
	identityAdapter identity.IdentityPort
	taskAdapter     task.TaskPort
	notifications   notification.NotificationPort
	rateLimitModule *ratelimit.Module
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule configured from the environment.
func NewModule() *APIModule {
	port := defaultPort
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			port = p
		} else {
			log.Printf("[api] Ignoring invalid HTTP_PORT %q", v)
		}
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}

	return &APIModule{
		port:           port,
		allowedOrigins: allowedOrigins,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"identity", "task", "notification"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "identity":
		m.identityAdapter = identity.NewIdentityAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "notification":
		m.notifications = notification.NewNotificationAdapter(container)
	}
}

// SetRateLimitModule sets the rate limiting module. Without it routes are
// not rate limited.
func (m *APIModule) SetRateLimitModule(rlm *ratelimit.Module) {
	m.rateLimitModule = rlm
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.identityAdapter == nil {
		return fmt.Errorf("identity dependency not set")
	}
	if m.taskAdapter == nil {
		return fmt.Errorf("task dependency not set")
	}

	var limiter *ratelimit.Middleware
	if m.rateLimitModule != nil {
		limiter = m.rateLimitModule.GetMiddleware()
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "Task Marketplace",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: m.allowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	handlers := NewHandlers(m.identityAdapter, m.taskAdapter, m.notifications)
	setupRoutes(m.app, handlers, m.identityAdapter, limiter)

	addr := fmt.Sprintf(":%d", m.port)
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	message := "operational"
	if m.app == nil {
		message = "not started"
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: message,
		Details: map[string]any{
			"port":          m.port,
			"rate_limiting": m.rateLimitModule != nil && m.rateLimitModule.GetMiddleware() != nil,
		},
	}
}

// setupRoutes configures all API routes on app. limiter may be nil.
func setupRoutes(app *fiber.App, h *Handlers, identityPort identity.IdentityPort, limiter *ratelimit.Middleware) {
	ipLimit, subjectLimit := passThrough, passThrough
	if limiter != nil {
		ipLimit = limiter.IPRateLimit()
		subjectLimit = limiter.SubjectRateLimit()
	}
	auth := AuthMiddleware(identityPort)

	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")

	tasks := v1.Group("/tasks")
	tasks.Get("/", ipLimit, h.ListTasks)
	tasks.Get("/:id", ipLimit, h.GetTask)
	tasks.Post("/", auth, subjectLimit, h.CreateTask)
	tasks.Put("/:id", auth, subjectLimit, h.UpdateTask)
	tasks.Delete("/:id", auth, subjectLimit, h.CancelTask)

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/request-otp", ipLimit, h.RequestOTP)
	authRoutes.Post("/verify-otp", ipLimit, h.VerifyOTP)
	authRoutes.Post("/register", ipLimit, h.Register)
	authRoutes.Post("/refresh", ipLimit, h.Refresh)
	authRoutes.Get("/me", auth, subjectLimit, h.Me)

	v1.Get("/notifications", auth, subjectLimit, h.ListNotifications)

	adminOnly := RequireRole(identitydomain.RoleAdmin)
	admin := v1.Group("/admin")
	admin.Get("/dashboard", auth, subjectLimit, adminOnly, h.AdminDashboard)
	admin.Get("/users", auth, subjectLimit, adminOnly, h.AdminUsers)
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}
