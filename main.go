package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/example/task-marketplace/modules/api"
	"github.com/example/task-marketplace/modules/identity"
	"github.com/example/task-marketplace/modules/notification"
	"github.com/example/task-marketplace/modules/ratelimit"
	"github.com/example/task-marketplace/modules/task"
	"github.com/example/task-marketplace/modules/telemetry"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Task Marketplace ===")

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if strings.EqualFold(getEnv("LOG_LEVEL", "info"), "error") {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	telemetryModule, err := telemetry.NewModule()
	if err != nil {
		log.Fatalf("Failed to create telemetry module: %v", err)
	}

	rateLimitModule := ratelimit.NewModule()
	apiModule := api.NewModule()
	apiModule.SetRateLimitModule(rateLimitModule)

	// Middleware first so it sees every service registration, then
	// independent modules, then dependents.
	app.Register(telemetryModule)
	app.Register(identity.NewModule())
	app.Register(notification.NewModule())
	app.Register(task.NewModule())
	app.Register(rateLimitModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func printStartupInfo() {
	port := getEnv("HTTP_PORT", "3000")
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/request-otp  - Send a sign-in code to a phone")
	log.Println("  POST   /api/v1/auth/verify-otp   - Verify a code and sign in")
	log.Println("  POST   /api/v1/auth/register     - Register after verifying a code")
	log.Println("  POST   /api/v1/auth/refresh      - Refresh access token")
	log.Println("  GET    /api/v1/tasks             - Search tasks")
	log.Println("  GET    /api/v1/tasks/:id         - Get a task")
	log.Println("  GET    /health                   - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /api/v1/tasks             - Post a task (clients)")
	log.Println("  PUT    /api/v1/tasks/:id         - Update a task")
	log.Println("  DELETE /api/v1/tasks/:id         - Cancel a task (owning client)")
	log.Println("  GET    /api/v1/auth/me           - Current user")
	log.Println("  GET    /api/v1/notifications     - Your notifications")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
