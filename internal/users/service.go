package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/usermanagement-backend/internal/email"
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/db"
	"github.com/angelmondragon/usermanagement-backend/pkg/db/models"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
	"github.com/angelmondragon/usermanagement-backend/pkg/pagination"
	"github.com/angelmondragon/usermanagement-backend/pkg/security"
	"github.com/angelmondragon/usermanagement-backend/pkg/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgUserNotFound      = "user not found"
	msgEmailTaken        = "email already registered"
	msgNicknameTaken     = "nickname already taken"
	msgAdminGrantDenied  = "managers cannot grant the ADMIN role"
	msgAdminEditDenied   = "managers cannot modify ADMIN accounts"
	msgUserUnknownLookup = "load user"
)

// Actor is the authenticated caller of a management operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// NewAccount carries everything needed to provision an account.
type NewAccount struct {
	Email    string
	Nickname string
	Password string
	Role     enums.UserRole
	Profile  ProfileFields
	// Verified skips the verification email; used by operator tooling.
	Verified bool
}

// Service is the user management surface used by controllers and the CLI.
type Service interface {
	CreateAccount(ctx context.Context, input NewAccount) (*models.User, error)
	Create(ctx context.Context, actor Actor, req CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, int64, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateUserRequest) (*models.User, error)
	Unlock(ctx context.Context, id uuid.UUID) (*models.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type repository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByNickname(ctx context.Context, nickname string) (*models.User, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, int64, error)
	Update(ctx context.Context, id uuid.UUID, changes map[string]any) (*models.User, error)
	Unlock(ctx context.Context, id uuid.UUID) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           repository
	Tx             db.TxRunner
	RepoFactory    func(tx *gorm.DB) repository
	Notifier       email.Notifier
	PasswordConfig config.PasswordConfig
	AuthConfig     config.AuthConfig
}

type service struct {
	repo        repository
	tx          db.TxRunner
	newRepo     func(tx *gorm.DB) repository
	notifier    email.Notifier
	passwordCfg config.PasswordConfig
	authCfg     config.AuthConfig
}

// NewService constructs a users service. RepoFactory defaults to the gorm repository.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	newRepo := params.RepoFactory
	if newRepo == nil {
		newRepo = func(tx *gorm.DB) repository { return NewRepository(tx) }
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = email.NopNotifier{}
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		newRepo:     newRepo,
		notifier:    notifier,
		passwordCfg: params.PasswordConfig,
		authCfg:     params.AuthConfig,
	}, nil
}

// CreateAccount provisions a user in one transaction: uniqueness checks,
// optional nickname generation, password hashing and the verification token.
// The verification email is sent after commit and never fails the call.
func (s *service) CreateAccount(ctx context.Context, input NewAccount) (*models.User, error) {
	emailAddr := validation.NormalizeEmail(input.Email)
	if err := validation.Email(emailAddr); err != nil {
		return nil, validationError("email", err.Error())
	}
	if err := validation.Password(input.Password); err != nil {
		return nil, validationError("password", err.Error())
	}
	nickname := strings.TrimSpace(input.Nickname)
	if nickname != "" {
		if err := validation.Nickname(nickname); err != nil {
			return nil, validationError("nickname", err.Error())
		}
	}
	role := input.Role
	if role == "" {
		role = enums.UserRoleAnonymous
	}
	if !role.IsValid() {
		return nil, validationError("role", "is invalid")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var token string
	if !input.Verified {
		token, err = security.NewVerificationToken(s.authCfg.VerificationTokenBytes)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification token")
		}
	}

	user := &models.User{
		Email:         emailAddr,
		PasswordHash:  hash,
		Role:          role,
		EmailVerified: input.Verified,
	}
	input.Profile.apply(user)
	if token != "" {
		user.VerificationToken = &token
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.newRepo(tx)

		if _, err := repo.FindByEmail(ctx, emailAddr); err == nil {
			return conflict("email", msgEmailTaken)
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		if nickname == "" {
			generated, err := UniqueNickname(ctx, repo)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate nickname")
			}
			nickname = generated
		} else if taken, err := repo.NicknameExists(ctx, nickname); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check nickname")
		} else if taken {
			return conflict("nickname", msgNicknameTaken)
		}
		user.Nickname = nickname

		if err := repo.Create(ctx, user); err != nil {
			return translateWriteError(err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if token != "" {
		s.notifier.SendVerification(ctx, user, token)
	}
	return user, nil
}

func (s *service) Create(ctx context.Context, actor Actor, req CreateUserRequest) (*models.User, error) {
	role := enums.UserRoleAnonymous
	if req.Role != nil {
		parsed, err := enums.ParseUserRole(*req.Role)
		if err != nil {
			return nil, validationError("role", "is invalid")
		}
		role = parsed
	}
	if err := checkRoleGrant(actor, role); err != nil {
		return nil, err
	}
	return s.CreateAccount(ctx, NewAccount{
		Email:    req.Email,
		Nickname: req.Nickname,
		Password: req.Password,
		Role:     role,
		Profile:  req.ProfileFields,
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return user, nil
}

func (s *service) GetByEmail(ctx context.Context, emailAddr string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, validation.NormalizeEmail(emailAddr))
	if err != nil {
		return nil, lookupError(err)
	}
	return user, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.User, int64, error) {
	rows, total, err := s.repo.List(ctx, params.Normalize())
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return rows, total, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	changes := req.Changes()

	if raw, ok := changes["role"]; ok {
		role, err := enums.ParseUserRole(raw.(string))
		if err != nil {
			return nil, validationError("role", "is invalid")
		}
		if err := checkRoleGrant(actor, role); err != nil {
			return nil, err
		}
		changes["role"] = string(role)
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == enums.UserRoleAdmin && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgAdminEditDenied)
	}

	if v, ok := changes["email"]; ok {
		if existing, err := s.repo.FindByEmail(ctx, v.(string)); err == nil && existing.ID != id {
			return nil, conflict("email", msgEmailTaken)
		} else if err != nil && !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
	}
	if v, ok := changes["nickname"]; ok {
		if existing, err := s.repo.FindByNickname(ctx, v.(string)); err == nil && existing.ID != id {
			return nil, conflict("nickname", msgNicknameTaken)
		} else if err != nil && !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check nickname")
		}
	}

	user, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return nil, translateWriteError(err, "update user")
	}
	return user, nil
}

func (s *service) Unlock(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := s.repo.Unlock(ctx, id); err != nil {
		return nil, lookupError(err)
	}
	return s.Get(ctx, id)
}

func (s *service) MarkVerified(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.MarkVerified(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark verified")
	}
	return s.Get(ctx, id)
}

func checkRoleGrant(actor Actor, role enums.UserRole) error {
	if role == enums.UserRoleAdmin && actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgAdminGrantDenied)
	}
	return nil
}

func lookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgUserUnknownLookup)
}

func translateWriteError(err error, op string) error {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	switch {
	case db.IsUniqueViolation(err, "email"):
		return conflict("email", msgEmailTaken)
	case db.IsUniqueViolation(err, "nickname"):
		return conflict("nickname", msgNicknameTaken)
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "duplicate value")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

func conflict(field, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, message).WithDetails(map[string]string{field: message})
}

func validationError(field, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: message})
}
