package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	domain "github.com/example/task-marketplace/domain/identity"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidRole is returned when registration asks for a role users
	// cannot pick themselves.
	ErrInvalidRole = errors.New("role must be CLIENT or TASKER")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrInvalidName is returned when first or last name is blank.
	ErrInvalidName = errors.New("first and last name are required")
	// ErrAccountSuspended is returned when a suspended user tries to sign in.
	ErrAccountSuspended = errors.New("account is suspended")
)

// OTPChallenge describes an issued code without revealing it.
type OTPChallenge struct {
	Phone      string
	UserExists bool
	ExpiresIn  int64
}

// Verification is the outcome of a verify-otp call. Tokens is nil when the
// phone has no account yet and the caller must register.
type Verification struct {
	Phone                string
	RegistrationRequired bool
	User                 *domain.User
	Tokens               *domain.TokenPair
}

// Registration carries the fields of a new account.
type Registration struct {
	Phone     string
	Code      string
	FirstName string
	LastName  string
	Email     string
	Role      domain.Role
}

const (
	defaultUserPageSize = 20
	maxUserPageSize     = 100
)

// UserPage is one page of the user directory.
type UserPage struct {
	Users      []domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserStats counts registered users.
type UserStats struct {
	TotalUsers    int64
	ActiveTaskers int64
}

// IdentityService handles phone OTP sign-in and token issuance.
type IdentityService struct {
	repo   *UserRepository
	otps   OTPStore
	sender OTPSender
	jwt    *JWTManager
	otpTTL time.Duration
	now    func() time.Time
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(repo *UserRepository, otps OTPStore, sender OTPSender, jwt *JWTManager, otpTTL time.Duration) *IdentityService {
	if sender == nil {
		sender = LogSender{}
	}
	return &IdentityService{
		repo:   repo,
		otps:   otps,
		sender: sender,
		jwt:    jwt,
		otpTTL: otpTTL,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RequestOTP issues a fresh code for the phone, replacing any pending one.
func (s *IdentityService) RequestOTP(ctx context.Context, phone string) (*OTPChallenge, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash otp: %w", err)
	}
	if err := s.otps.Save(ctx, normalized, string(hash), s.otpTTL); err != nil {
		return nil, err
	}
	if err := s.sender.Send(ctx, normalized, code); err != nil {
		return nil, fmt.Errorf("failed to send otp: %w", err)
	}

	exists, err := s.repo.PhoneExists(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone existence: %w", err)
	}

	return &OTPChallenge{
		Phone:      normalized,
		UserExists: exists,
		ExpiresIn:  int64(s.otpTTL.Seconds()),
	}, nil
}

// VerifyOTP checks the code. Existing users get tokens and the code is
// consumed; unknown phones keep the code so that Register can reuse it.
func (s *IdentityService) VerifyOTP(ctx context.Context, phone, code string) (*Verification, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := s.checkOTP(ctx, normalized, code); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &Verification{Phone: normalized, RegistrationRequired: true}, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}

	if err := s.otps.Delete(ctx, normalized); err != nil {
		return nil, err
	}
	if !user.PhoneVerified {
		if err := s.repo.MarkPhoneVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		user.PhoneVerified = true
	}

	tokens, err := s.generateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Verification{Phone: normalized, User: user, Tokens: tokens}, nil
}

// Register creates an account for a phone that holds a valid pending code.
func (s *IdentityService) Register(ctx context.Context, reg Registration) (*domain.User, *domain.TokenPair, error) {
	normalized, err := NormalizePhone(reg.Phone)
	if err != nil {
		return nil, nil, err
	}
	if reg.Role != domain.RoleClient && reg.Role != domain.RoleTasker {
		return nil, nil, ErrInvalidRole
	}
	first, last := strings.TrimSpace(reg.FirstName), strings.TrimSpace(reg.LastName)
	if first == "" || last == "" {
		return nil, nil, ErrInvalidName
	}
	var email *string
	if e := strings.TrimSpace(reg.Email); e != "" {
		if _, err := mail.ParseAddress(e); err != nil {
			return nil, nil, ErrInvalidEmail
		}
		email = &e
	}

	if err := s.checkOTP(ctx, normalized, reg.Code); err != nil {
		return nil, nil, err
	}

	exists, err := s.repo.PhoneExists(ctx, normalized)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check phone existence: %w", err)
	}
	if exists {
		return nil, nil, ErrUserExists
	}

	now := s.now()
	user := &domain.User{
		ID:            uuid.New().String(),
		Phone:         normalized,
		Email:         email,
		FirstName:     first,
		LastName:      last,
		Role:          reg.Role,
		Status:        domain.UserStatusPending,
		PhoneVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.otps.Delete(ctx, normalized); err != nil {
		return nil, nil, err
	}

	tokens, err := s.generateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshTokens generates new access and refresh tokens.
func (s *IdentityService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// The role is re-read so that tokens follow the stored account.
	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("invalid refresh token: %w", ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}

	return s.generateTokenPair(user.ID, user.Role)
}

// ValidateToken validates an access token and returns claims.
func (s *IdentityService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		SubjectID: claims.Subject,
		Role:      claims.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// ListUsers returns one page of users, newest first. Out-of-range values
// fall back to the first page and the default size.
func (s *IdentityService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxUserPageSize {
		limit = defaultUserPageSize
	}

	users, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// Stats counts users for platform oversight.
func (s *IdentityService) Stats(ctx context.Context) (*UserStats, error) {
	total, taskers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return &UserStats{TotalUsers: total, ActiveTaskers: taskers}, nil
}

// checkOTP compares the code against the pending hash without consuming it.
func (s *IdentityService) checkOTP(ctx context.Context, phone, code string) error {
	if len(code) != otpDigits {
		return ErrInvalidOTP
	}

	hash, err := s.otps.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		attempts, err := s.otps.IncrementAttempts(ctx, phone)
		if err != nil {
			return err
		}
		if attempts >= maxOTPAttempts {
			if err := s.otps.Delete(ctx, phone); err != nil {
				return err
			}
			return ErrTooManyAttempts
		}
		return ErrInvalidOTP
	}
	return nil
}

// generateTokenPair generates both access and refresh tokens.
func (s *IdentityService) generateTokenPair(userID string, role domain.Role) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}
