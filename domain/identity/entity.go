package identity

import (
	"time"
)

// Role is the platform role carried in every verified identity.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleTasker Role = "TASKER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTasker, RoleAdmin:
		return true
	default:
		return false
	}
}

// UserStatus is the account state of a user.
type UserStatus string

const (
	UserStatusPending   UserStatus = "PENDING"
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User represents a registered platform user.
type User struct {
	ID            string     `gorm:"primaryKey;type:text"`
	Phone         string     `gorm:"uniqueIndex;not null;type:text"`
	Email         *string    `gorm:"type:text"`
	FirstName     string     `gorm:"not null;type:text"`
	LastName      string     `gorm:"not null;type:text"`
	Role          Role       `gorm:"not null;type:text"`
	Status        UserStatus `gorm:"not null;type:text"`
	PhoneVerified bool       `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims is the verified identity of a caller.
type Claims struct {
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`
}
