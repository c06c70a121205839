package identity

import (
	"context"
	"errors"

	domain "github.com/example/task-marketplace/domain/identity"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this phone already exists")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByPhone finds a user by normalized phone number.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.findOne(ctx, "phone = ?", phone)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).First(&user, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// PhoneExists checks if a user with the given phone exists.
func (r *UserRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("phone = ?", phone).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// MarkPhoneVerified flags the phone as verified after a successful OTP login.
func (r *UserRepository) MarkPhoneVerified(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("phone_verified", true).Error
}

// List returns one page of users, newest first, plus the total count.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]domain.User, 0, limit)
	result := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&users)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return users, total, nil
}

// CountUsers counts all users, and the taskers among them whose account is
// not suspended.
func (r *UserRepository) CountUsers(ctx context.Context) (total, activeTaskers int64, err error) {
	if err = r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&domain.User{}).
		Where("role = ? AND status <> ?", domain.RoleTasker, domain.UserStatusSuspended).
		Count(&activeTaskers).Error
	if err != nil {
		return 0, 0, err
	}
	return total, activeTaskers, nil
}
