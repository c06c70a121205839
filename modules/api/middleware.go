package api

import (
	"slices"
	"strings"

	domain "github.com/example/task-marketplace/domain/identity"
	"github.com/example/task-marketplace/modules/identity"
	"github.com/example/task-marketplace/modules/ratelimit"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store caller claims in the Fiber context.
	UserContextKey = "user"
)

// AuthMiddleware creates a middleware that validates bearer tokens.
func AuthMiddleware(identityPort identity.IdentityPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fail(c, fiber.StatusUnauthorized, "unauthorized", "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return fail(c, fiber.StatusUnauthorized, "unauthorized", "Invalid authorization header format. Use: Bearer <token>")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return fail(c, fiber.StatusUnauthorized, "unauthorized", "Token is required")
		}

		claims, err := identityPort.ValidateToken(c.UserContext(), token)
		if err != nil {
			return fail(c, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired token")
		}

		c.Locals(UserContextKey, claims)
		c.Locals(ratelimit.SubjectLocalKey, claims.SubjectID)

		return c.Next()
	}
}

// claimsFrom returns the caller claims stored by AuthMiddleware.
func claimsFrom(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok && claims != nil
}

// RequireRole allows only callers holding one of roles. It must run after
// AuthMiddleware.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := claimsFrom(c)
		if !ok {
			return fail(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
		}
		if !slices.Contains(roles, claims.Role) {
			return fail(c, fiber.StatusForbidden, "forbidden", "Admin access required")
		}
		return c.Next()
	}
}
