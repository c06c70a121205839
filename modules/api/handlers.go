package api

import (
	"strconv"
	"strings"

	domain "github.com/example/task-marketplace/domain/task"
	"github.com/example/task-marketplace/modules/identity"
	"github.com/example/task-marketplace/modules/notification"
	"github.com/example/task-marketplace/modules/task"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
	maxUserLimit             = 100
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	identity      identity.IdentityPort
	tasks         task.TaskPort
	notifications notification.NotificationPort
}

// NewHandlers creates a new Handlers instance. notifications may be nil,
// in which case the notifications endpoint answers 503.
func NewHandlers(identityPort identity.IdentityPort, tasks task.TaskPort, notifications notification.NotificationPort) *Handlers {
	return &Handlers{
		identity:      identityPort,
		tasks:         tasks,
		notifications: notifications,
	}
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	draft, err := req.toDraft()
	if err != nil {
		return writeError(c, err)
	}

	taskID, err := h.tasks.CreateTask(c.UserContext(), caller, draft)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Task created successfully",
		Data:    CreateTaskData{TaskID: taskID},
	})
}

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	q, err := parseTaskQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.tasks.ListTasks(c.UserContext(), q.filter, q.page, q.limit)
	if err != nil {
		return writeError(c, err)
	}

	items := make([]TaskResponse, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, newTaskResponse(t))
	}

	return c.JSON(ListResponse{
		Success:    true,
		Data:       items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	t, err := h.tasks.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(Response{
		Success: true,
		Data:    newTaskResponse(t),
	})
}

// UpdateTask handles PUT /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	patch, err := req.toPatch()
	if err != nil {
		return writeError(c, err)
	}

	if err := h.tasks.UpdateTask(c.UserContext(), caller, c.Params("id"), patch); err != nil {
		return writeError(c, err)
	}

	return c.JSON(Response{
		Success: true,
		Message: "Task updated successfully",
	})
}

// CancelTask handles DELETE /tasks/:id.
func (h *Handlers) CancelTask(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	if err := h.tasks.CancelTask(c.UserContext(), caller, c.Params("id")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(Response{
		Success: true,
		Message: "Task cancelled successfully",
	})
}

// RequestOTP handles POST /auth/request-otp.
func (h *Handlers) RequestOTP(c *fiber.Ctx) error {
	var req RequestOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return badRequest(c, "Phone number is required")
	}

	resp, err := h.identity.RequestOTP(c.UserContext(), req.Phone)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(Response{
		Success: true,
		Message: "Verification code sent",
		Data:    resp,
	})
}

// VerifyOTP handles POST /auth/verify-otp.
func (h *Handlers) VerifyOTP(c *fiber.Ctx) error {
	var req identity.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Phone == "" || req.Code == "" {
		return badRequest(c, "Phone number and code are required")
	}

	resp, err := h.identity.VerifyOTP(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	message := "Signed in successfully"
	if resp.RequiresRegistration {
		message = "Phone verified, registration required"
	}
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    resp,
	})
}

// Register handles POST /auth/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req identity.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Phone == "" || req.Code == "" {
		return badRequest(c, "Phone number and code are required")
	}

	resp, err := h.identity.Register(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Registration successful",
		Data:    resp,
	})
}

// Refresh handles POST /auth/refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	tokens, err := h.identity.RefreshTokens(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired refresh token")
	}

	return c.JSON(Response{
		Success: true,
		Data:    tokens,
	})
}

// Me handles GET /auth/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	user, err := h.identity.GetUser(c.UserContext(), claims.SubjectID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(Response{
		Success: true,
		Data:    user,
	})
}

// ListNotifications handles GET /notifications.
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}
	if h.notifications == nil {
		return fail(c, fiber.StatusServiceUnavailable, "unavailable", "Notifications are not available")
	}

	limit := defaultNotificationLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxNotificationLimit {
			return badRequest(c, "limit must be between 1 and 100")
		}
		limit = n
	}

	items, err := h.notifications.ListNotifications(c.UserContext(), claims.SubjectID, limit)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []notification.Notification{}
	}

	return c.JSON(Response{
		Success: true,
		Data:    items,
	})
}

// AdminDashboard handles GET /admin/dashboard.
func (h *Handlers) AdminDashboard(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	users, err := h.identity.UserStats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	tasks, err := h.tasks.Stats(c.UserContext(), caller)
	if err != nil {
		return writeError(c, err)
	}

	byStatus := make(map[string]int64, len(tasks.ByStatus))
	for status, count := range tasks.ByStatus {
		byStatus[string(status)] = count
	}

	return c.JSON(Response{
		Success: true,
		Data: DashboardData{
			TotalUsers:      users.TotalUsers,
			ActiveTaskers:   users.ActiveTaskers,
			TotalTasks:      tasks.TotalTasks,
			TasksByStatus:   byStatus,
			TotalRevenueGHS: tasks.Revenue.GHS(),
		},
	})
}

// AdminUsers handles GET /admin/users.
func (h *Handlers) AdminUsers(c *fiber.Ctx) error {
	page, err := intParam(c, "page")
	if err != nil {
		return badRequest(c, err.Error())
	}
	limit, err := intParam(c, "limit")
	if err != nil || limit > maxUserLimit {
		return badRequest(c, "limit must be between 1 and 100")
	}

	result, err := h.identity.ListUsers(c.UserContext(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	users := result.Users
	if users == nil {
		users = []identity.UserResponse{}
	}

	return c.JSON(UserListResponse{
		Success:    true,
		Data:       users,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"module": "api",
	})
}

func callerFrom(c *fiber.Ctx) (domain.Caller, bool) {
	claims, ok := claimsFrom(c)
	if !ok {
		return domain.Caller{}, false
	}
	return domain.Caller{SubjectID: claims.SubjectID, Role: claims.Role}, true
}
