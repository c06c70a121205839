package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	domain "github.com/example/task-marketplace/domain/identity"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// IdentityModule provides phone sign-in, registration and token services.
type IdentityModule struct {
	db          *gorm.DB
	redisClient *redis.Client
	service     *IdentityService
	dbPath      string
	redisAddr   string
	redisPass   string
	otpTTL      time.Duration
	debug       bool
}

// Compile-time interface checks.
var _ mono.Module = (*IdentityModule)(nil)
var _ mono.ServiceProviderModule = (*IdentityModule)(nil)
var _ mono.HealthCheckableModule = (*IdentityModule)(nil)

// NewModule creates a new IdentityModule configured from the environment.
func NewModule() *IdentityModule {
	dbPath := os.Getenv("IDENTITY_DB_PATH")
	if dbPath == "" {
		dbPath = "identity.db"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	return &IdentityModule{
		dbPath:    dbPath,
		redisAddr: redisAddr,
		redisPass: os.Getenv("REDIS_PASSWORD"),
		otpTTL:    time.Duration(envInt("OTP_EXPIRE_MINUTES", 5)) * time.Minute,
		debug:     os.Getenv("DB_DEBUG") == "true",
	}
}

// Name returns the module name.
func (m *IdentityModule) Name() string {
	return "identity"
}

// Start opens the user database and the OTP store.
func (m *IdentityModule) Start(ctx context.Context) error {
	logLevel := logger.Silent
	if m.debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.redisClient = redis.NewClient(&redis.Options{
		Addr:     m.redisAddr,
		Password: m.redisPass,
		DB:       0,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.redisAddr, err)
	}

	m.service = NewIdentityService(
		NewUserRepository(db),
		NewRedisOTPStore(m.redisClient, "otp:"),
		LogSender{},
		NewJWTManager(loadJWTConfig()),
		m.otpTTL,
	)

	log.Printf("[identity] Module started (database: %s, redis: %s)", m.dbPath, m.redisAddr)
	return nil
}

// Stop shuts down the module.
func (m *IdentityModule) Stop(_ context.Context) error {
	if m.redisClient != nil {
		if err := m.redisClient.Close(); err != nil {
			log.Printf("[identity] Error closing Redis client: %v", err)
		}
	}
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[identity] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *IdentityModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil || m.redisClient == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "module not started",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	if err := m.redisClient.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
			"redis":    m.redisAddr,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *IdentityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "request-otp", json.Unmarshal, json.Marshal, m.handleRequestOTP,
	); err != nil {
		return fmt.Errorf("failed to register request-otp service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "verify-otp", json.Unmarshal, json.Marshal, m.handleVerifyOTP,
	); err != nil {
		return fmt.Errorf("failed to register verify-otp service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-users", json.Unmarshal, json.Marshal, m.handleListUsers,
	); err != nil {
		return fmt.Errorf("failed to register list-users service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "user-stats", json.Unmarshal, json.Marshal, m.handleUserStats,
	); err != nil {
		return fmt.Errorf("failed to register user-stats service: %w", err)
	}

	log.Printf("[identity] Registered services: request-otp, verify-otp, register, refresh-token, validate-token, get-user, list-users, user-stats")
	return nil
}

func (m *IdentityModule) handleRequestOTP(ctx context.Context, req RequestOTPRequest, _ *mono.Msg) (RequestOTPResponse, error) {
	challenge, err := m.service.RequestOTP(ctx, req.Phone)
	if err != nil {
		return RequestOTPResponse{}, err
	}
	return RequestOTPResponse{
		Phone:      challenge.Phone,
		UserExists: challenge.UserExists,
		ExpiresIn:  challenge.ExpiresIn,
	}, nil
}

func (m *IdentityModule) handleVerifyOTP(ctx context.Context, req VerifyOTPRequest, _ *mono.Msg) (VerifyOTPResponse, error) {
	v, err := m.service.VerifyOTP(ctx, req.Phone, req.Code)
	if err != nil {
		return VerifyOTPResponse{}, err
	}
	return newVerifyOTPResponse(v), nil
}

func newVerifyOTPResponse(v *Verification) VerifyOTPResponse {
	resp := VerifyOTPResponse{
		Phone:                v.Phone,
		UserExists:           !v.RegistrationRequired,
		RequiresRegistration: v.RegistrationRequired,
		Tokens:               v.Tokens,
	}
	if v.User != nil {
		u := newUserResponse(v.User)
		resp.User = &u
	}
	return resp
}

func (m *IdentityModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, tokens, err := m.service.Register(ctx, Registration{
		Phone:     req.Phone,
		Code:      req.Code,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		return RegisterResponse{}, err
	}
	return RegisterResponse{User: newUserResponse(user), Tokens: *tokens}, nil
}

func (m *IdentityModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (domain.TokenPair, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return *tokens, nil
}

// handleValidateToken reports failures in the response body rather than as
// a service error.
func (m *IdentityModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := ErrInvalidToken.Error()
		if errors.Is(err, ErrExpiredToken) {
			errMsg = ErrExpiredToken.Error()
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil
	}

	return ValidateTokenResponse{
		Valid:     true,
		SubjectID: claims.SubjectID,
		Role:      claims.Role,
	}, nil
}

func (m *IdentityModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return newUserResponse(user), nil
}

func (m *IdentityModule) handleListUsers(ctx context.Context, req ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	page, err := m.service.ListUsers(ctx, req.Page, req.Limit)
	if err != nil {
		return ListUsersResponse{}, err
	}
	return newListUsersResponse(page), nil
}

func newListUsersResponse(page *UserPage) ListUsersResponse {
	users := make([]UserResponse, 0, len(page.Users))
	for i := range page.Users {
		users = append(users, newUserResponse(&page.Users[i]))
	}
	return ListUsersResponse{
		Users:      users,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

func (m *IdentityModule) handleUserStats(ctx context.Context, _ UserStatsRequest, _ *mono.Msg) (UserStatsResponse, error) {
	stats, err := m.service.Stats(ctx)
	if err != nil {
		return UserStatsResponse{}, err
	}
	return UserStatsResponse{
		TotalUsers:    stats.TotalUsers,
		ActiveTaskers: stats.ActiveTaskers,
	}, nil
}

// loadJWTConfig loads JWT configuration from environment variables.
func loadJWTConfig() JWTConfig {
	config := DefaultJWTConfig()

	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.SecretKey = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}
	if mins := envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 0); mins > 0 {
		config.AccessTokenDuration = time.Duration(mins) * time.Minute
	}
	if days := envInt("REFRESH_TOKEN_EXPIRE_DAYS", 0); days > 0 {
		config.RefreshTokenDuration = time.Duration(days) * 24 * time.Hour
	}

	return config
}

func envInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[identity] Ignoring invalid %s=%q", key, v)
		return defaultValue
	}
	return n
}
