package users

import (
	"context"
	"time"

	"github.com/angelmondragon/usermanagement-backend/pkg/db/models"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	"github.com/angelmondragon/usermanagement-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user; ID and default role are filled by the model hook.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided (already normalized) email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByNickname retrieves the user owning nickname.
func (r *Repository) FindByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// NicknameExists reports whether nickname is taken.
func (r *Repository) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("nickname = ?", nickname).Count(&count).Error
	return count > 0, err
}

// List returns one offset window ordered by creation time plus the total row count.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.User, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update applies the given column changes and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) (*models.User, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// RecordFailedLogin increments the failure counter and locks the account once
// it reaches threshold. The increment and lock are a single conditional UPDATE
// so concurrent failures cannot lose counts; the row is re-read in the same
// transaction.
func (r *Repository) RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", id).
			UpdateColumns(map[string]any{
				"failed_login_attempts": gorm.Expr("failed_login_attempts + 1"),
				"is_locked":             gorm.Expr("CASE WHEN failed_login_attempts + 1 >= ? THEN ? ELSE is_locked END", threshold, true),
				"updated_at":            time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordSuccessfulLogin resets the failure counter and stamps last_login_at.
func (r *Repository) RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"failed_login_attempts": 0,
			"last_login_at":         at,
			"updated_at":            at,
		}).Error
}

// SetVerificationToken stores the one-time email verification token.
func (r *Repository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("verification_token", token).Error
}

// MarkVerified flags the email as verified, clears the token and promotes
// anonymous accounts to authenticated.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"email_verified":     true,
			"verification_token": nil,
			"role": gorm.Expr("CASE WHEN role = ? THEN ? ELSE role END",
				string(enums.UserRoleAnonymous), string(enums.UserRoleAuthenticated)),
		}).Error
}

// Unlock clears the lock flag and the failure counter.
func (r *Repository) Unlock(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_locked":             false,
			"failed_login_attempts": 0,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash, used to upgrade legacy hashes on login.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}
