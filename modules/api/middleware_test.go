package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/example/task-marketplace/domain/identity"
	"github.com/example/task-marketplace/modules/identity"
	"github.com/example/task-marketplace/modules/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// mockIdentityPort implements identity.IdentityPort for testing
type mockIdentityPort struct {
	validateTokenFunc func(ctx context.Context, token string) (*domain.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*identity.UserResponse, error)
	requestOTPFunc    func(ctx context.Context, phone string) (*identity.RequestOTPResponse, error)
	verifyOTPFunc     func(ctx context.Context, req identity.VerifyOTPRequest) (*identity.VerifyOTPResponse, error)
	registerFunc      func(ctx context.Context, req identity.RegisterRequest) (*identity.RegisterResponse, error)
	refreshFunc       func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	listUsersFunc     func(ctx context.Context, page, limit int) (*identity.ListUsersResponse, error)
	userStatsFunc     func(ctx context.Context) (*identity.UserStatsResponse, error)
}

func (m *mockIdentityPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) GetUser(ctx context.Context, userID string) (*identity.UserResponse, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) RequestOTP(ctx context.Context, phone string) (*identity.RequestOTPResponse, error) {
	if m.requestOTPFunc != nil {
		return m.requestOTPFunc(ctx, phone)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) VerifyOTP(ctx context.Context, req identity.VerifyOTPRequest) (*identity.VerifyOTPResponse, error) {
	if m.verifyOTPFunc != nil {
		return m.verifyOTPFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) Register(ctx context.Context, req identity.RegisterRequest) (*identity.RegisterResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) ListUsers(ctx context.Context, page, limit int) (*identity.ListUsersResponse, error) {
	if m.listUsersFunc != nil {
		return m.listUsersFunc(ctx, page, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) UserStats(ctx context.Context) (*identity.UserStatsResponse, error) {
	if m.userStatsFunc != nil {
		return m.userStatsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

// tokenIdentity accepts "client-token", "tasker-token" and "admin-token".
func tokenIdentity() *mockIdentityPort {
	return &mockIdentityPort{
		validateTokenFunc: func(_ context.Context, token string) (*domain.Claims, error) {
			switch token {
			case "client-token":
				return &domain.Claims{SubjectID: "client-1", Role: domain.RoleClient}, nil
			case "tasker-token":
				return &domain.Claims{SubjectID: "tasker-1", Role: domain.RoleTasker}, nil
			case "admin-token":
				return &domain.Claims{SubjectID: "admin-1", Role: domain.RoleAdmin}, nil
			default:
				return nil, identity.ErrInvalidToken
			}
		},
	}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Authorization header is required"`,
		},
		{
			name:           "invalid authorization format - no bearer",
			authHeader:     "Basic token123",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Invalid authorization header format`,
		},
		{
			name:           "bearer without token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"success":false`,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Invalid or expired token"`,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer client-token",
			expectedStatus: http.StatusOK,
			expectedBody:   `"authenticated"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AuthMiddleware(tokenIdentity()))
			app.Get("/test", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"status": "authenticated"})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.expectedStatus)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("io.ReadAll() error = %v", err)
			}
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %v, want to contain %v", string(body), tt.expectedBody)
			}
		})
	}
}

func TestAuthMiddleware_UserContext(t *testing.T) {
	app := fiber.New()
	app.Use(AuthMiddleware(tokenIdentity()))

	var (
		gotClaims  *domain.Claims
		gotSubject string
	)
	app.Get("/test", func(c *fiber.Ctx) error {
		gotClaims, _ = claimsFrom(c)
		gotSubject, _ = c.Locals(ratelimit.SubjectLocalKey).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer tasker-token")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want 200", resp.StatusCode)
	}
	if gotClaims == nil {
		t.Fatal("claims were not stored in context")
	}
	if gotClaims.SubjectID != "tasker-1" || gotClaims.Role != domain.RoleTasker {
		t.Errorf("claims = %+v, want tasker-1/TASKER", gotClaims)
	}
	if gotSubject != "tasker-1" {
		t.Errorf("rate limit subject = %q, want tasker-1", gotSubject)
	}
}
