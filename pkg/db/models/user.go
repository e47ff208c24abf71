package models

import (
	"time"

	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Nickname            string         `gorm:"type:varchar(50);not null;uniqueIndex:ux_users_nickname"`
	Email               string         `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash        string         `gorm:"column:password_hash;not null"`
	FirstName           *string        `gorm:"column:first_name;type:varchar(100)"`
	LastName            *string        `gorm:"column:last_name;type:varchar(100)"`
	Bio                 *string        `gorm:"column:bio"`
	ProfilePictureURL   *string        `gorm:"column:profile_picture_url;type:varchar(255)"`
	LinkedInProfileURL  *string        `gorm:"column:linkedin_profile_url;type:varchar(255)"`
	GitHubProfileURL    *string        `gorm:"column:github_profile_url;type:varchar(255)"`
	Role                enums.UserRole `gorm:"column:role;type:varchar(20);not null;default:ANONYMOUS"`
	EmailVerified       bool           `gorm:"column:email_verified;not null;default:false"`
	IsLocked            bool           `gorm:"column:is_locked;not null;default:false"`
	FailedLoginAttempts int            `gorm:"column:failed_login_attempts;not null;default:0"`
	VerificationToken   *string        `gorm:"column:verification_token;type:varchar(255)"`
	LastLoginAt         *time.Time     `gorm:"column:last_login_at"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// BeforeCreate assigns the primary key and default role when the caller left them empty.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = enums.UserRoleAnonymous
	}
	return nil
}
