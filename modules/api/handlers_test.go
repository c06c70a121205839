package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	identitydomain "github.com/example/task-marketplace/domain/identity"
	domain "github.com/example/task-marketplace/domain/task"
	"github.com/example/task-marketplace/modules/identity"
	"github.com/example/task-marketplace/modules/notification"
	"github.com/example/task-marketplace/modules/task"
	"github.com/gofiber/fiber/v2"
)

// mockTaskPort implements task.TaskPort for testing
type mockTaskPort struct {
	createFunc func(ctx context.Context, caller domain.Caller, draft domain.Draft) (string, error)
	getFunc    func(ctx context.Context, taskID string) (*domain.Task, error)
	listFunc   func(ctx context.Context, filter domain.Filter, page, limit int) (*task.ListResult, error)
	updateFunc func(ctx context.Context, caller domain.Caller, taskID string, patch domain.Patch) error
	cancelFunc func(ctx context.Context, caller domain.Caller, taskID string) error
	statsFunc  func(ctx context.Context, caller domain.Caller) (*domain.Stats, error)
}

func (m *mockTaskPort) CreateTask(ctx context.Context, caller domain.Caller, draft domain.Draft) (string, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, caller, draft)
	}
	return "", errors.New("not implemented")
}

func (m *mockTaskPort) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, taskID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskPort) ListTasks(ctx context.Context, filter domain.Filter, page, limit int) (*task.ListResult, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, page, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskPort) UpdateTask(ctx context.Context, caller domain.Caller, taskID string, patch domain.Patch) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, caller, taskID, patch)
	}
	return errors.New("not implemented")
}

func (m *mockTaskPort) CancelTask(ctx context.Context, caller domain.Caller, taskID string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, caller, taskID)
	}
	return errors.New("not implemented")
}

func (m *mockTaskPort) Stats(ctx context.Context, caller domain.Caller) (*domain.Stats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx, caller)
	}
	return nil, errors.New("not implemented")
}

type mockNotificationPort struct {
	listFunc func(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error)
}

func (m *mockNotificationPort) ListNotifications(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error) {
	return m.listFunc(ctx, recipientID, limit)
}

func newTestApp(identityPort identity.IdentityPort, tasks task.TaskPort, notifications notification.NotificationPort) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
	setupRoutes(app, NewHandlers(identityPort, tasks, notifications), identityPort, nil)
	return app
}

type testResponse struct {
	status int
	body   map[string]any
	raw    string
}

func doRequest(t *testing.T, app *fiber.App, method, path, token, body string) testResponse {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}

	out := testResponse{status: resp.StatusCode, raw: string(raw)}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.body); err != nil {
			t.Fatalf("response is not JSON: %s", raw)
		}
	}
	return out
}

func sampleTask() *domain.Task {
	lat, lng := 5.6037, -0.187
	return &domain.Task{
		ID:              "task-1",
		Title:           "Fix kitchen sink",
		Description:     "The kitchen sink has been leaking since Monday",
		ClientID:        "client-1",
		CategoryID:      "plumbing",
		AddressID:       "addr-1",
		ScheduledAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		DurationEstMins: 90,
		Status:          domain.StatusCreated,
		Priority:        domain.PriorityMedium,
		Price:           10000,
		PlatformFee:     500,
		Currency:        domain.Currency,
		Location:        "Osu, Accra",
		Latitude:        &lat,
		Longitude:       &lng,
		CreatedAt:       time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC),
	}
}

const createBody = `{
	"title": "Fix kitchen sink",
	"description": "The kitchen sink has been leaking since Monday",
	"categoryId": "plumbing",
	"addressId": "addr-1",
	"scheduledAt": "2026-03-01T09:00:00Z",
	"durationEstMins": 90,
	"priceGHS": 100,
	"isUrgent": true
}`

func TestCreateTask(t *testing.T) {
	var (
		gotCaller domain.Caller
		gotDraft  domain.Draft
	)
	tasks := &mockTaskPort{
		createFunc: func(_ context.Context, caller domain.Caller, draft domain.Draft) (string, error) {
			gotCaller, gotDraft = caller, draft
			return "task-1", nil
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	resp := doRequest(t, app, "POST", "/api/v1/tasks", "client-token", createBody)

	if resp.status != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", resp.status, resp.raw)
	}
	if resp.body["success"] != true || resp.body["message"] != "Task created successfully" {
		t.Errorf("envelope = %s", resp.raw)
	}
	data, _ := resp.body["data"].(map[string]any)
	if data["taskId"] != "task-1" {
		t.Errorf("data.taskId = %v, want task-1", data["taskId"])
	}
	if gotCaller.SubjectID != "client-1" || gotCaller.Role != identitydomain.RoleClient {
		t.Errorf("caller = %+v", gotCaller)
	}
	if gotDraft.Price != 10000 {
		t.Errorf("draft price = %d pesewas, want 10000", gotDraft.Price)
	}
	if !gotDraft.IsUrgent || gotDraft.DurationEstMins != 90 {
		t.Errorf("draft = %+v", gotDraft)
	}
	if !gotDraft.ScheduledAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("scheduledAt = %v", gotDraft.ScheduledAt)
	}
}

func TestCreateTask_Errors(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		body       string
		createErr  error
		wantStatus int
		wantError  string
	}{
		{"no credential", "", createBody, nil, http.StatusUnauthorized, "unauthorized"},
		{"malformed body", "client-token", `{"title":`, nil, http.StatusBadRequest, "bad_request"},
		{"validation", "client-token", createBody, domain.Invalid("price must be at least 10.00 GHS"), http.StatusBadRequest, "bad_request"},
		{"tasker may not create", "tasker-token", createBody, domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"storage failure", "client-token", createBody, fmt.Errorf("create task: %w", domain.ErrStorage), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &mockTaskPort{
				createFunc: func(context.Context, domain.Caller, domain.Draft) (string, error) {
					if tt.createErr != nil {
						return "", tt.createErr
					}
					return "task-1", nil
				},
			}
			app := newTestApp(tokenIdentity(), tasks, nil)

			resp := doRequest(t, app, "POST", "/api/v1/tasks", tt.token, tt.body)

			if resp.status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.status, tt.wantStatus, resp.raw)
			}
			if resp.body["success"] != false {
				t.Errorf("success = %v, want false", resp.body["success"])
			}
			if resp.body["error"] != tt.wantError {
				t.Errorf("error = %v, want %s", resp.body["error"], tt.wantError)
			}
		})
	}
}

func TestCreateTask_ValidationMessage(t *testing.T) {
	tasks := &mockTaskPort{
		createFunc: func(context.Context, domain.Caller, domain.Draft) (string, error) {
			return "", domain.Invalid("title must be at least 5 characters")
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	resp := doRequest(t, app, "POST", "/api/v1/tasks", "client-token", createBody)

	msg, _ := resp.body["message"].(string)
	if !strings.Contains(msg, "title must be at least 5 characters") {
		t.Errorf("message = %q, want validation reason", msg)
	}
}

func TestCreateTask_RequirementsObject(t *testing.T) {
	var gotDraft domain.Draft
	tasks := &mockTaskPort{
		createFunc: func(_ context.Context, _ domain.Caller, draft domain.Draft) (string, error) {
			gotDraft = draft
			return "task-1", nil
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	body := strings.Replace(createBody, `"isUrgent": true`,
		`"isUrgent": true, "requirements": {"tools": "wrench", "helpers": 2}`, 1)
	resp := doRequest(t, app, "POST", "/api/v1/tasks", "client-token", body)

	if resp.status != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", resp.status, resp.raw)
	}
	if gotDraft.Requirements["tools"] != "wrench" || gotDraft.Requirements["helpers"] != float64(2) {
		t.Errorf("requirements = %v", gotDraft.Requirements)
	}
}

func TestCreateTask_PriceBelowMinimumBeforeRounding(t *testing.T) {
	for _, price := range []string{"9.996", "9.999", "9.99"} {
		t.Run(price, func(t *testing.T) {
			called := false
			tasks := &mockTaskPort{
				createFunc: func(context.Context, domain.Caller, domain.Draft) (string, error) {
					called = true
					return "task-1", nil
				},
			}
			app := newTestApp(tokenIdentity(), tasks, nil)

			body := strings.Replace(createBody, `"priceGHS": 100`, `"priceGHS": `+price, 1)
			resp := doRequest(t, app, "POST", "/api/v1/tasks", "client-token", body)

			if resp.status != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", resp.status, resp.raw)
			}
			msg, _ := resp.body["message"].(string)
			if !strings.Contains(msg, "at least 10.00 GHS") {
				t.Errorf("message = %q", msg)
			}
			if called {
				t.Error("CreateTask reached the task module")
			}
		})
	}
}

func TestStorageErrorDoesNotLeak(t *testing.T) {
	tasks := &mockTaskPort{
		getFunc: func(context.Context, string) (*domain.Task, error) {
			return nil, fmt.Errorf("%w: pq: relation \"tasks\" does not exist", domain.ErrStorage)
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	resp := doRequest(t, app, "GET", "/api/v1/tasks/task-1", "", "")

	if resp.status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.status)
	}
	if strings.Contains(resp.raw, "relation") || strings.Contains(resp.raw, "pq:") {
		t.Errorf("response leaks internals: %s", resp.raw)
	}
}

func TestGetTask(t *testing.T) {
	tasks := &mockTaskPort{
		getFunc: func(_ context.Context, id string) (*domain.Task, error) {
			if id != "task-1" {
				return nil, domain.ErrTaskNotFound
			}
			return sampleTask(), nil
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	t.Run("public read", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/v1/tasks/task-1", "", "")
		if resp.status != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", resp.status, resp.raw)
		}
		data, _ := resp.body["data"].(map[string]any)
		want := map[string]any{
			"id":             "task-1",
			"clientId":       "client-1",
			"taskerId":       nil,
			"scheduledAt":    "2026-03-01T09:00:00Z",
			"status":         "CREATED",
			"priceGHS":       100.0,
			"platformFeeGHS": 5.0,
			"currency":       "GHS",
			"updatedAt":      nil,
		}
		for k, v := range want {
			if data[k] != v {
				t.Errorf("data.%s = %v, want %v", k, data[k], v)
			}
		}
		coords, _ := data["coordinates"].(map[string]any)
		if coords["latitude"] != 5.6037 {
			t.Errorf("coordinates = %v", data["coordinates"])
		}
	})

	t.Run("missing task", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/v1/tasks/nope", "", "")
		if resp.status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.status)
		}
		if resp.body["error"] != "not_found" {
			t.Errorf("error = %v, want not_found", resp.body["error"])
		}
	})
}

func TestListTasks(t *testing.T) {
	var (
		gotFilter      domain.Filter
		gotPage, gotLm int
	)
	tasks := &mockTaskPort{
		listFunc: func(_ context.Context, filter domain.Filter, page, limit int) (*task.ListResult, error) {
			gotFilter, gotPage, gotLm = filter, page, limit
			return &task.ListResult{
				Items:      []*domain.Task{sampleTask()},
				Total:      41,
				Page:       2,
				Limit:      20,
				TotalPages: 3,
			}, nil
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	resp := doRequest(t, app, "GET",
		"/api/v1/tasks?query=sink&status=created&priority=HIGH&minPrice=10&maxPrice=250.5&isUrgent=true&page=2&limit=20", "", "")

	if resp.status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.status, resp.raw)
	}
	if resp.body["total"] != 41.0 || resp.body["page"] != 2.0 || resp.body["limit"] != 20.0 || resp.body["totalPages"] != 3.0 {
		t.Errorf("pagination = %s", resp.raw)
	}
	if items, _ := resp.body["data"].([]any); len(items) != 1 {
		t.Errorf("data = %v, want one item", resp.body["data"])
	}

	if gotPage != 2 || gotLm != 20 {
		t.Errorf("page/limit = %d/%d, want 2/20", gotPage, gotLm)
	}
	if gotFilter.Query == nil || *gotFilter.Query != "sink" {
		t.Errorf("query = %v", gotFilter.Query)
	}
	if gotFilter.Status == nil || *gotFilter.Status != domain.StatusCreated {
		t.Errorf("status = %v", gotFilter.Status)
	}
	if gotFilter.Priority == nil || *gotFilter.Priority != domain.PriorityHigh {
		t.Errorf("priority = %v", gotFilter.Priority)
	}
	if gotFilter.MinPrice == nil || *gotFilter.MinPrice != 1000 {
		t.Errorf("minPrice = %v", gotFilter.MinPrice)
	}
	if gotFilter.MaxPrice == nil || *gotFilter.MaxPrice != 25050 {
		t.Errorf("maxPrice = %v", gotFilter.MaxPrice)
	}
	if gotFilter.IsUrgent == nil || !*gotFilter.IsUrgent {
		t.Errorf("isUrgent = %v", gotFilter.IsUrgent)
	}
	if gotFilter.CategoryID != nil || gotFilter.Location != nil {
		t.Errorf("unset filters should be nil: %+v", gotFilter)
	}
}

func TestListTasks_EmptyPage(t *testing.T) {
	tasks := &mockTaskPort{
		listFunc: func(context.Context, domain.Filter, int, int) (*task.ListResult, error) {
			return &task.ListResult{Page: 1, Limit: 20}, nil
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	resp := doRequest(t, app, "GET", "/api/v1/tasks", "", "")

	if resp.status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.status)
	}
	if !strings.Contains(resp.raw, `"data":[]`) {
		t.Errorf("empty page should serialise data as []: %s", resp.raw)
	}
}

func TestListTasks_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non numeric price", "minPrice=cheap"},
		{"negative price", "maxPrice=-5"},
		{"unknown status", "status=FINISHED"},
		{"unknown priority", "priority=ASAP"},
		{"bad bool", "isUrgent=maybe"},
		{"bad page", "page=zero"},
		{"zero limit", "limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			tasks := &mockTaskPort{
				listFunc: func(context.Context, domain.Filter, int, int) (*task.ListResult, error) {
					called = true
					return &task.ListResult{}, nil
				},
			}
			app := newTestApp(tokenIdentity(), tasks, nil)

			resp := doRequest(t, app, "GET", "/api/v1/tasks?"+tt.query, "", "")

			if resp.status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", resp.status, resp.raw)
			}
			if called {
				t.Error("service must not be called for a malformed query")
			}
		})
	}
}

func TestListTasks_LimitOutOfRange(t *testing.T) {
	tasks := &mockTaskPort{
		listFunc: func(context.Context, domain.Filter, int, int) (*task.ListResult, error) {
			return nil, fmt.Errorf("list-tasks service call failed: %w", domain.ErrInvalidPagination)
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	resp := doRequest(t, app, "GET", "/api/v1/tasks?limit=500", "", "")

	if resp.status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.status)
	}
}

func TestUpdateTask(t *testing.T) {
	var gotPatch domain.Patch
	tasks := &mockTaskPort{
		updateFunc: func(_ context.Context, caller domain.Caller, id string, patch domain.Patch) error {
			if id == "task-3" {
				return domain.ErrTaskConflict
			}
			if id != "task-1" {
				return domain.ErrTaskNotFound
			}
			if caller.SubjectID != "client-1" {
				return domain.ErrForbidden
			}
			if patch.IsEmpty() {
				return domain.ErrEmptyPatch
			}
			if patch.Status != nil && *patch.Status == domain.StatusCompleted {
				return domain.ErrInvalidTransition
			}
			gotPatch = patch
			return nil
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	t.Run("owner updates", func(t *testing.T) {
		resp := doRequest(t, app, "PUT", "/api/v1/tasks/task-1", "client-token",
			`{"title":"Fix bathroom sink","priceGHS":120.5,"status":"ASSIGNED","taskerId":"tasker-1"}`)
		if resp.status != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", resp.status, resp.raw)
		}
		if resp.body["message"] != "Task updated successfully" {
			t.Errorf("message = %v", resp.body["message"])
		}
		if gotPatch.Title == nil || *gotPatch.Title != "Fix bathroom sink" {
			t.Errorf("patch title = %v", gotPatch.Title)
		}
		if gotPatch.Price == nil || *gotPatch.Price != 12050 {
			t.Errorf("patch price = %v", gotPatch.Price)
		}
		if gotPatch.Status == nil || *gotPatch.Status != domain.StatusAssigned {
			t.Errorf("patch status = %v", gotPatch.Status)
		}
		if gotPatch.Description != nil {
			t.Errorf("absent fields must stay nil")
		}
	})

	tests := []struct {
		name       string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		{"no credential", "/api/v1/tasks/task-1", "", `{"title":"Fix bathroom sink"}`, http.StatusUnauthorized},
		{"other user", "/api/v1/tasks/task-1", "tasker-token", `{"title":"Fix bathroom sink"}`, http.StatusForbidden},
		{"empty patch", "/api/v1/tasks/task-1", "client-token", `{}`, http.StatusBadRequest},
		{"missing task", "/api/v1/tasks/task-2", "client-token", `{"title":"Fix bathroom sink"}`, http.StatusNotFound},
		{"invalid transition", "/api/v1/tasks/task-1", "client-token", `{"status":"COMPLETED"}`, http.StatusConflict},
		{"concurrent change", "/api/v1/tasks/task-3", "client-token", `{"isUrgent":true}`, http.StatusConflict},
		{"price just under minimum", "/api/v1/tasks/task-1", "client-token", `{"priceGHS":9.999}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, "PUT", tt.path, tt.token, tt.body)
			if resp.status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.status, tt.wantStatus, resp.raw)
			}
		})
	}
}

func TestCancelTask(t *testing.T) {
	tasks := &mockTaskPort{
		cancelFunc: func(_ context.Context, caller domain.Caller, id string) error {
			if id != "task-1" {
				return domain.ErrTaskNotFound
			}
			if caller.Role != identitydomain.RoleClient || caller.SubjectID != "client-1" {
				return domain.ErrForbidden
			}
			return nil
		},
	}
	app := newTestApp(tokenIdentity(), tasks, nil)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"owner cancels", "/api/v1/tasks/task-1", "client-token", http.StatusOK},
		{"tasker forbidden", "/api/v1/tasks/task-1", "tasker-token", http.StatusForbidden},
		{"missing task", "/api/v1/tasks/task-9", "client-token", http.StatusNotFound},
		{"no credential", "/api/v1/tasks/task-1", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, "DELETE", tt.path, tt.token, "")
			if resp.status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.status, tt.wantStatus, resp.raw)
			}
			if tt.wantStatus == http.StatusOK && resp.body["message"] != "Task cancelled successfully" {
				t.Errorf("message = %v", resp.body["message"])
			}
		})
	}
}

func TestAuthRoutes(t *testing.T) {
	tokens := &identitydomain.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    1800,
		TokenType:    "Bearer",
	}
	idp := tokenIdentity()
	idp.requestOTPFunc = func(_ context.Context, phone string) (*identity.RequestOTPResponse, error) {
		if phone == "123" {
			return nil, fmt.Errorf("request-otp request failed: %w", identity.ErrInvalidPhone)
		}
		return &identity.RequestOTPResponse{Phone: "+233241234567", ExpiresIn: 300}, nil
	}
	idp.verifyOTPFunc = func(_ context.Context, req identity.VerifyOTPRequest) (*identity.VerifyOTPResponse, error) {
		if req.Code != "123456" {
			return nil, identity.ErrInvalidOTP
		}
		return &identity.VerifyOTPResponse{Phone: req.Phone, RequiresRegistration: true}, nil
	}
	idp.registerFunc = func(_ context.Context, req identity.RegisterRequest) (*identity.RegisterResponse, error) {
		if req.Role == identitydomain.RoleAdmin {
			return nil, identity.ErrInvalidRole
		}
		return &identity.RegisterResponse{
			User:   identity.UserResponse{ID: "client-1", Phone: req.Phone, Role: req.Role},
			Tokens: *tokens,
		}, nil
	}
	idp.refreshFunc = func(_ context.Context, token string) (*identitydomain.TokenPair, error) {
		if token != "refresh" {
			return nil, identity.ErrInvalidToken
		}
		return tokens, nil
	}
	idp.getUserFunc = func(_ context.Context, id string) (*identity.UserResponse, error) {
		return &identity.UserResponse{ID: id, FirstName: "Ama"}, nil
	}
	app := newTestApp(idp, &mockTaskPort{}, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"request otp", "POST", "/api/v1/auth/request-otp", "", `{"phone":"0241234567"}`, http.StatusOK, `"expiresIn":300`},
		{"request otp bad phone", "POST", "/api/v1/auth/request-otp", "", `{"phone":"123"}`, http.StatusBadRequest, `Invalid phone number`},
		{"request otp missing phone", "POST", "/api/v1/auth/request-otp", "", `{}`, http.StatusBadRequest, `Phone number is required`},
		{"verify new phone", "POST", "/api/v1/auth/verify-otp", "", `{"phone":"0241234567","code":"123456"}`, http.StatusOK, `"requiresRegistration":true`},
		{"verify wrong code", "POST", "/api/v1/auth/verify-otp", "", `{"phone":"0241234567","code":"000000"}`, http.StatusBadRequest, `Invalid or expired code`},
		{"register", "POST", "/api/v1/auth/register", "", `{"phone":"0241234567","code":"123456","firstName":"Ama","lastName":"Mensah","role":"CLIENT"}`, http.StatusCreated, `"access_token":"access"`},
		{"register admin", "POST", "/api/v1/auth/register", "", `{"phone":"0241234567","code":"123456","firstName":"Ama","lastName":"Mensah","role":"ADMIN"}`, http.StatusBadRequest, `Role must be CLIENT or TASKER`},
		{"refresh", "POST", "/api/v1/auth/refresh", "", `{"refreshToken":"refresh"}`, http.StatusOK, `"refresh_token":"refresh"`},
		{"refresh invalid", "POST", "/api/v1/auth/refresh", "", `{"refreshToken":"stale"}`, http.StatusUnauthorized, `Invalid or expired refresh token`},
		{"me", "GET", "/api/v1/auth/me", "client-token", "", http.StatusOK, `"firstName":"Ama"`},
		{"me anonymous", "GET", "/api/v1/auth/me", "", "", http.StatusUnauthorized, `Authorization header is required`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, tt.method, tt.path, tt.token, tt.body)
			if resp.status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.status, tt.wantStatus, resp.raw)
			}
			if !strings.Contains(resp.raw, tt.wantBody) {
				t.Errorf("body = %s, want to contain %s", resp.raw, tt.wantBody)
			}
		})
	}
}

func TestListNotifications(t *testing.T) {
	var gotRecipient string
	var gotLimit int
	notifications := &mockNotificationPort{
		listFunc: func(_ context.Context, recipientID string, limit int) ([]notification.Notification, error) {
			gotRecipient, gotLimit = recipientID, limit
			return []notification.Notification{{ID: "n-1", TaskID: "task-1", RecipientID: recipientID, Type: "task_created"}}, nil
		},
	}
	app := newTestApp(tokenIdentity(), &mockTaskPort{}, notifications)

	resp := doRequest(t, app, "GET", "/api/v1/notifications?limit=5", "client-token", "")
	if resp.status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.status, resp.raw)
	}
	if gotRecipient != "client-1" || gotLimit != 5 {
		t.Errorf("recipient/limit = %s/%d, want client-1/5", gotRecipient, gotLimit)
	}
	if !strings.Contains(resp.raw, `"taskId":"task-1"`) {
		t.Errorf("body = %s", resp.raw)
	}

	resp = doRequest(t, app, "GET", "/api/v1/notifications?limit=1000", "client-token", "")
	if resp.status != http.StatusBadRequest {
		t.Errorf("limit above max: status = %d, want 400", resp.status)
	}

	doRequest(t, app, "GET", "/api/v1/notifications", "client-token", "")
	if gotLimit != defaultNotificationLimit {
		t.Errorf("default limit = %d, want %d", gotLimit, defaultNotificationLimit)
	}
}

func TestListNotifications_Unavailable(t *testing.T) {
	app := newTestApp(tokenIdentity(), &mockTaskPort{}, nil)

	resp := doRequest(t, app, "GET", "/api/v1/notifications", "client-token", "")
	if resp.status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.status)
	}
}

func TestAdminRoutes(t *testing.T) {
	var gotPage, gotLimit int
	identityPort := tokenIdentity()
	identityPort.userStatsFunc = func(context.Context) (*identity.UserStatsResponse, error) {
		return &identity.UserStatsResponse{TotalUsers: 12, ActiveTaskers: 4}, nil
	}
	identityPort.listUsersFunc = func(_ context.Context, page, limit int) (*identity.ListUsersResponse, error) {
		gotPage, gotLimit = page, limit
		return &identity.ListUsersResponse{
			Users:      []identity.UserResponse{{ID: "user-1", Phone: "+233241234567", Role: identitydomain.RoleClient}},
			Total:      21,
			Page:       2,
			Limit:      10,
			TotalPages: 3,
		}, nil
	}
	tasks := &mockTaskPort{
		statsFunc: func(_ context.Context, caller domain.Caller) (*domain.Stats, error) {
			if caller.Role != identitydomain.RoleAdmin {
				return nil, domain.ErrForbidden
			}
			return &domain.Stats{
				TotalTasks: 7,
				ByStatus:   map[domain.Status]int64{domain.StatusCreated: 5, domain.StatusCompleted: 2},
				Revenue:    1050,
			}, nil
		},
	}
	app := newTestApp(identityPort, tasks, nil)

	t.Run("dashboard", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/v1/admin/dashboard", "admin-token", "")
		if resp.status != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", resp.status, resp.raw)
		}
		data, _ := resp.body["data"].(map[string]any)
		if data["totalUsers"] != float64(12) || data["activeTaskers"] != float64(4) {
			t.Errorf("user stats = %v", data)
		}
		if data["totalTasks"] != float64(7) || data["totalRevenueGHS"] != 10.5 {
			t.Errorf("task stats = %v", data)
		}
		byStatus, _ := data["tasksByStatus"].(map[string]any)
		if byStatus["COMPLETED"] != float64(2) {
			t.Errorf("tasksByStatus = %v", byStatus)
		}
	})

	t.Run("users", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/v1/admin/users?page=2&limit=10", "admin-token", "")
		if resp.status != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", resp.status, resp.raw)
		}
		if gotPage != 2 || gotLimit != 10 {
			t.Errorf("page/limit = %d/%d, want 2/10", gotPage, gotLimit)
		}
		if resp.body["total"] != float64(21) || resp.body["totalPages"] != float64(3) {
			t.Errorf("envelope = %s", resp.raw)
		}
		users, _ := resp.body["data"].([]any)
		if len(users) != 1 {
			t.Errorf("data = %v", resp.body["data"])
		}
	})

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"dashboard without credential", "/api/v1/admin/dashboard", "", http.StatusUnauthorized},
		{"dashboard as client", "/api/v1/admin/dashboard", "client-token", http.StatusForbidden},
		{"users as tasker", "/api/v1/admin/users", "tasker-token", http.StatusForbidden},
		{"users limit too large", "/api/v1/admin/users?limit=500", "admin-token", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, "GET", tt.path, tt.token, "")
			if resp.status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.status, tt.wantStatus, resp.raw)
			}
		})
	}
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app := newTestApp(tokenIdentity(), &mockTaskPort{}, nil)

	resp := doRequest(t, app, "GET", "/health", "", "")
	if resp.status != http.StatusOK || resp.body["status"] != "healthy" {
		t.Errorf("health = %d %s", resp.status, resp.raw)
	}

	resp = doRequest(t, app, "GET", "/api/v1/nothing-here", "", "")
	if resp.status != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", resp.status)
	}
	if resp.body["success"] != false {
		t.Errorf("unknown route should use the envelope: %s", resp.raw)
	}
}
