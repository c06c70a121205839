package api

import (
	"errors"
	"log"

	domain "github.com/example/task-marketplace/domain/task"
	"github.com/example/task-marketplace/modules/identity"
	"github.com/gofiber/fiber/v2"
)

// errorMapping ties a domain error to the response it produces.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{domain.ErrTaskNotFound, fiber.StatusNotFound, "not_found", "Task not found"},
	{domain.ErrForbidden, fiber.StatusForbidden, "forbidden", "Insufficient permissions"},
	{domain.ErrEmptyPatch, fiber.StatusBadRequest, "bad_request", "No fields to update"},
	{domain.ErrInvalidPagination, fiber.StatusBadRequest, "bad_request", "Invalid pagination parameters"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "conflict", "Invalid status transition"},
	{domain.ErrTaskTerminal, fiber.StatusConflict, "conflict", "Task can no longer be modified"},
	{domain.ErrTaskConflict, fiber.StatusConflict, "conflict", "Task was changed by another request, please retry"},

	{identity.ErrExpiredToken, fiber.StatusUnauthorized, "unauthorized", "Token has expired"},
	{identity.ErrInvalidToken, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired token"},
	{identity.ErrInvalidOTP, fiber.StatusBadRequest, "bad_request", "Invalid or expired code"},
	{identity.ErrTooManyAttempts, fiber.StatusTooManyRequests, "too_many_requests", "Too many attempts, request a new code"},
	{identity.ErrAccountSuspended, fiber.StatusForbidden, "forbidden", "Account is suspended"},
	{identity.ErrUserNotFound, fiber.StatusNotFound, "not_found", "User not found"},
	{identity.ErrUserExists, fiber.StatusConflict, "conflict", "User with this phone already exists"},
	{identity.ErrInvalidPhone, fiber.StatusBadRequest, "bad_request", "Invalid phone number"},
	{identity.ErrInvalidRole, fiber.StatusBadRequest, "bad_request", "Role must be CLIENT or TASKER"},
	{identity.ErrInvalidEmail, fiber.StatusBadRequest, "bad_request", "Invalid email format"},
	{identity.ErrInvalidName, fiber.StatusBadRequest, "bad_request", "First and last name are required"},
}

// writeError maps err to a status code and envelope. Unknown errors,
// storage failures included, are logged and answered with a generic 500.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fail(c, fiber.StatusBadRequest, "bad_request", verr.Error())
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return fail(c, m.status, m.code, m.message)
		}
	}

	log.Printf("[api] Internal error on %s %s: %v", c.Method(), c.Path(), err)
	return fail(c, fiber.StatusInternalServerError, "internal_error", "An internal error occurred")
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Error:   code,
		Message: message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, "bad_request", message)
}

// customErrorHandler handles errors returned by Fiber itself, such as
// unknown routes.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] Unhandled error: %v", err)
	}

	return c.Status(code).JSON(Response{
		Success: false,
		Error:   "server_error",
		Message: message,
	})
}
