package identity

import (
	"time"

	domain "github.com/example/task-marketplace/domain/identity"
)

// RequestOTPRequest asks for a sign-in code.
type RequestOTPRequest struct {
	Phone string `json:"phone"`
}

// RequestOTPResponse describes the issued code.
type RequestOTPResponse struct {
	Phone      string `json:"phone"`
	UserExists bool   `json:"userExists"`
	ExpiresIn  int64  `json:"expiresIn"`
}

// VerifyOTPRequest submits a code.
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTPResponse carries tokens for existing users, or asks the client
// to register.
type VerifyOTPResponse struct {
	Phone                string            `json:"phone"`
	UserExists           bool              `json:"userExists"`
	RequiresRegistration bool              `json:"requiresRegistration"`
	User                 *UserResponse     `json:"user,omitempty"`
	Tokens               *domain.TokenPair `json:"tokens,omitempty"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Phone     string      `json:"phone"`
	Code      string      `json:"code"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	User   UserResponse     `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid     bool        `json:"valid"`
	SubjectID string      `json:"subject_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// ListUsersRequest asks for one page of the user directory.
type ListUsersRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ListUsersResponse is one page of the user directory.
type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// UserStatsRequest asks for user counts.
type UserStatsRequest struct{}

// UserStatsResponse carries user counts.
type UserStatsResponse struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveTaskers int64 `json:"activeTaskers"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            string            `json:"id"`
	Phone         string            `json:"phone"`
	Email         *string           `json:"email,omitempty"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	Role          domain.Role       `json:"role"`
	Status        domain.UserStatus `json:"status"`
	PhoneVerified bool              `json:"phoneVerified"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Phone:         u.Phone,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		Status:        u.Status,
		PhoneVerified: u.PhoneVerified,
		CreatedAt:     u.CreatedAt,
	}
}
