package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/task-marketplace/domain/identity"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// IdentityPort defines the interface for identity operations.
// This is the port that other modules use to access identity functionality.
type IdentityPort interface {
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*UserResponse, error)
	RequestOTP(ctx context.Context, phone string) (*RequestOTPResponse, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ListUsers(ctx context.Context, page, limit int) (*ListUsersResponse, error)
	UserStats(ctx context.Context) (*UserStatsResponse, error)
}

// IdentityAdapter implements IdentityPort using the service container.
type IdentityAdapter struct {
	container mono.ServiceContainer
}

var _ IdentityPort = (*IdentityAdapter)(nil)

// NewIdentityAdapter creates a new IdentityAdapter.
func NewIdentityAdapter(container mono.ServiceContainer) *IdentityAdapter {
	return &IdentityAdapter{
		container: container,
	}
}

// ValidateToken validates an access token and returns claims.
func (a *IdentityAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := a.call(ctx, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		if resp.Error == ErrExpiredToken.Error() {
			return nil, fmt.Errorf("token validation failed: %w", ErrExpiredToken)
		}
		return nil, fmt.Errorf("token validation failed: %w", ErrInvalidToken)
	}

	return &domain.Claims{
		SubjectID: resp.SubjectID,
		Role:      resp.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *IdentityAdapter) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := a.call(ctx, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestOTP issues a sign-in code.
func (a *IdentityAdapter) RequestOTP(ctx context.Context, phone string) (*RequestOTPResponse, error) {
	req := RequestOTPRequest{Phone: phone}
	var resp RequestOTPResponse
	if err := a.call(ctx, "request-otp", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP checks a sign-in code.
func (a *IdentityAdapter) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResponse, error) {
	var resp VerifyOTPResponse
	if err := a.call(ctx, "verify-otp", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account.
func (a *IdentityAdapter) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := a.call(ctx, "register", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshTokens exchanges a refresh token for a new pair.
func (a *IdentityAdapter) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp domain.TokenPair
	if err := a.call(ctx, "refresh-token", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUsers returns one page of the user directory.
func (a *IdentityAdapter) ListUsers(ctx context.Context, page, limit int) (*ListUsersResponse, error) {
	req := ListUsersRequest{Page: page, Limit: limit}
	var resp ListUsersResponse
	if err := a.call(ctx, "list-users", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserStats returns user counts.
func (a *IdentityAdapter) UserStats(ctx context.Context) (*UserStatsResponse, error) {
	var req UserStatsRequest
	var resp UserStatsResponse
	if err := a.call(ctx, "user-stats", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *IdentityAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return decodeServiceError(service, err)
	}
	return nil
}

// remoteErrors are matched by message; order matters where one message
// could contain another.
var remoteErrors = []error{
	ErrExpiredToken,
	ErrInvalidToken,
	ErrInvalidPhone,
	ErrInvalidOTP,
	ErrTooManyAttempts,
	ErrUserExists,
	ErrUserNotFound,
	ErrInvalidRole,
	ErrInvalidEmail,
	ErrInvalidName,
	ErrAccountSuspended,
}

func decodeServiceError(service string, err error) error {
	msg := err.Error()
	for _, target := range remoteErrors {
		if strings.Contains(msg, target.Error()) {
			return fmt.Errorf("%s request failed: %w", service, target)
		}
	}
	return fmt.Errorf("%s request failed: %w", service, err)
}
