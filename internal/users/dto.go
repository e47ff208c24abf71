package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/usermanagement-backend/pkg/db/models"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
	"github.com/angelmondragon/usermanagement-backend/pkg/pagination"
	"github.com/angelmondragon/usermanagement-backend/pkg/validation"
	"github.com/google/uuid"
)

// UserResponse is the transport shape that omits credentials and tokens.
type UserResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Nickname           string            `json:"nickname"`
	Email              string            `json:"email"`
	FirstName          *string           `json:"first_name"`
	LastName           *string           `json:"last_name"`
	Bio                *string           `json:"bio"`
	ProfilePictureURL  *string           `json:"profile_picture_url"`
	LinkedInProfileURL *string           `json:"linkedin_profile_url"`
	GitHubProfileURL   *string           `json:"github_profile_url"`
	Role               enums.UserRole    `json:"role"`
	EmailVerified      bool              `json:"email_verified"`
	IsLocked           bool              `json:"is_locked"`
	LastLoginAt        *time.Time        `json:"last_login_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Links              []pagination.Link `json:"links,omitempty"`
}

// FromModel maps the persisted user to its response shape. When baseURL is
// set, management links for the user are attached.
func FromModel(u *models.User, baseURL string) *UserResponse {
	if u == nil {
		return nil
	}
	resp := &UserResponse{
		ID:                 u.ID,
		Nickname:           u.Nickname,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Bio:                u.Bio,
		ProfilePictureURL:  u.ProfilePictureURL,
		LinkedInProfileURL: u.LinkedInProfileURL,
		GitHubProfileURL:   u.GitHubProfileURL,
		Role:               u.Role,
		EmailVerified:      u.EmailVerified,
		IsLocked:           u.IsLocked,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
	if baseURL != "" {
		resp.Links = userLinks(strings.TrimRight(baseURL, "/"), u.ID)
	}
	return resp
}

func userLinks(baseURL string, id uuid.UUID) []pagination.Link {
	self := fmt.Sprintf("%s/users/%s", baseURL, id)
	return []pagination.Link{
		{Rel: "self", Href: self, Method: "GET"},
		{Rel: "update", Href: self, Method: "PUT"},
		{Rel: "unlock", Href: self + "/unlock", Method: "POST"},
	}
}

// ProfileFields are the optional profile attributes shared by every write payload.
type ProfileFields struct {
	FirstName          *string `json:"first_name" validate:"omitnil,max=100"`
	LastName           *string `json:"last_name" validate:"omitnil,max=100"`
	Bio                *string `json:"bio" validate:"omitnil,max=500"`
	ProfilePictureURL  *string `json:"profile_picture_url" validate:"omitnil,max=255,profile_url"`
	LinkedInProfileURL *string `json:"linkedin_profile_url" validate:"omitnil,max=255,profile_url"`
	GitHubProfileURL   *string `json:"github_profile_url" validate:"omitnil,max=255,profile_url"`
}

func (p ProfileFields) apply(u *models.User) {
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Bio = p.Bio
	u.ProfilePictureURL = p.ProfilePictureURL
	u.LinkedInProfileURL = p.LinkedInProfileURL
	u.GitHubProfileURL = p.GitHubProfileURL
}

// CreateUserRequest is the staff payload for POST /users.
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Nickname string  `json:"nickname" validate:"required,nickname"`
	Password string  `json:"password" validate:"required,strong_password"`
	Role     *string `json:"role" validate:"omitnil,oneof=ANONYMOUS AUTHENTICATED MANAGER ADMIN"`
	ProfileFields
}

// RegisterRequest is the self-service payload for POST /register. A nickname
// is generated when omitted.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Nickname *string `json:"nickname" validate:"omitnil,nickname"`
	Password string  `json:"password" validate:"required,strong_password"`
	ProfileFields
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Nickname *string `json:"nickname" validate:"omitnil,nickname"`
	Role     *string `json:"role" validate:"omitnil,oneof=ANONYMOUS AUTHENTICATED MANAGER ADMIN"`
	ProfileFields
}

// Validate rejects an empty patch.
func (r UpdateUserRequest) Validate() error {
	if len(r.Changes()) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one field must be provided for update").
			WithDetails(map[string]string{"body": "at least one field must be provided for update"})
	}
	return nil
}

// Changes returns the column set touched by the patch.
func (r UpdateUserRequest) Changes() map[string]any {
	changes := map[string]any{}
	if r.Email != nil {
		changes["email"] = validation.NormalizeEmail(*r.Email)
	}
	if r.Nickname != nil {
		changes["nickname"] = strings.TrimSpace(*r.Nickname)
	}
	if r.Role != nil {
		changes["role"] = strings.ToUpper(strings.TrimSpace(*r.Role))
	}
	for column, value := range map[string]*string{
		"first_name":           r.FirstName,
		"last_name":            r.LastName,
		"bio":                  r.Bio,
		"profile_picture_url":  r.ProfilePictureURL,
		"linkedin_profile_url": r.LinkedInProfileURL,
		"github_profile_url":   r.GitHubProfileURL,
	} {
		if value != nil {
			changes[column] = *value
		}
	}
	return changes
}
