package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/usermanagement-backend/internal/email"
	"github.com/angelmondragon/usermanagement-backend/internal/users"
	pkgAuth "github.com/angelmondragon/usermanagement-backend/pkg/auth"
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/db"
	"github.com/angelmondragon/usermanagement-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/metrics"
	"github.com/angelmondragon/usermanagement-backend/pkg/security"
	"github.com/angelmondragon/usermanagement-backend/pkg/validation"
	"github.com/google/uuid"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	accountLockedMessage      = "account locked"
	emailNotVerifiedMessage   = "email not verified"
	invalidTokenMessage       = "invalid or expired verification token"
)

var verifyPassword = security.VerifyPassword

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req users.RegisterRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID, token string) (*models.User, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int) (*models.User, error)
	RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

type accountCreator interface {
	CreateAccount(ctx context.Context, input users.NewAccount) (*models.User, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Accounts       accountCreator
	Notifier       email.Notifier
	Metrics        *metrics.AuthMetrics
	Logger         *logger.Logger
	JWTConfig      config.JWTConfig
	AuthConfig     config.AuthConfig
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

type service struct {
	users       userRepository
	accounts    accountCreator
	notifier    email.Notifier
	metrics     *metrics.AuthMetrics
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	authCfg     config.AuthConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
	// dummyHash is checked on unknown emails so both paths pay for one argon2 run.
	dummyHash string
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account creator is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = email.NopNotifier{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	dummyHash, err := security.HashPassword(uuid.NewString(), params.PasswordConfig)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	return &service{
		users:       params.UserRepo,
		accounts:    params.Accounts,
		notifier:    notifier,
		metrics:     params.Metrics,
		logg:        logg,
		jwtCfg:      params.JWTConfig,
		authCfg:     params.AuthConfig,
		passwordCfg: params.PasswordConfig,
		now:         now,
		dummyHash:   dummyHash,
	}, nil
}

// Login runs the authentication gate: existence, lock, verification, then password.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		s.metrics.ObserveLogin(metrics.LoginUnavailable)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}
	s.upgradeHash(ctx, user, req.Password)

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		s.metrics.ObserveLogin(metrics.LoginUnavailable)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	s.metrics.ObserveLogin(metrics.LoginSucceeded)
	return &LoginResponse{AccessToken: token, TokenType: pkgAuth.TokenType}, nil
}

func (s *service) authenticate(ctx context.Context, emailAddr, password string) (*models.User, error) {
	normalized := validation.NormalizeEmail(emailAddr)
	if normalized == "" {
		s.metrics.ObserveLogin(metrics.LoginInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if db.IsNotFound(err) {
			_, _ = verifyPassword(password, s.dummyHash)
			s.metrics.ObserveLogin(metrics.LoginInvalid)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		s.metrics.ObserveLogin(metrics.LoginUnavailable)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if user.IsLocked {
		s.metrics.ObserveLogin(metrics.LoginLocked)
		return nil, pkgerrors.New(pkgerrors.CodeAccountLocked, accountLockedMessage)
	}
	if !user.EmailVerified {
		s.metrics.ObserveLogin(metrics.LoginUnverified)
		return nil, pkgerrors.New(pkgerrors.CodeEmailNotVerified, emailNotVerifiedMessage)
	}

	valid, err := verifyPassword(password, user.PasswordHash)
	if err != nil {
		s.metrics.ObserveLogin(metrics.LoginUnavailable)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, s.recordFailure(ctx, user)
	}
	return user, nil
}

// recordFailure bumps the counter; the attempt that trips the lock still
// answers invalid credentials.
func (s *service) recordFailure(ctx context.Context, user *models.User) error {
	s.metrics.ObserveLogin(metrics.LoginInvalid)

	updated, err := s.users.RecordFailedLogin(ctx, user.ID, s.authCfg.LockThreshold())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record failed login")
	}
	if updated.IsLocked && !user.IsLocked {
		s.metrics.IncLockout()
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":         updated.ID.String(),
			"failed_attempts": updated.FailedLoginAttempts,
		})
		s.logg.Warn(logCtx, "account locked after failed logins")
		s.notifier.SendAccountLocked(ctx, updated)
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
}

// upgradeHash re-hashes legacy or outdated password hashes after a successful
// login. Failures are logged; the login still succeeds.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		return
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "user_id", user.ID.String()), "password rehash failed", err)
	}
}

func (s *service) Register(ctx context.Context, req users.RegisterRequest) (*models.User, error) {
	input := users.NewAccount{
		Email:    req.Email,
		Password: req.Password,
		Profile:  req.ProfileFields,
	}
	if req.Nickname != nil {
		input.Nickname = *req.Nickname
	}
	user, err := s.accounts.CreateAccount(ctx, input)
	if err != nil {
		return nil, err
	}
	s.metrics.IncRegistration()
	return user, nil
}

func (s *service) VerifyEmail(ctx context.Context, userID uuid.UUID, token string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			s.metrics.ObserveVerification(false)
			return nil, pkgerrors.New(pkgerrors.CodeInvalidToken, invalidTokenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.VerificationToken == nil || !security.TokensEqual(token, *user.VerificationToken) {
		s.metrics.ObserveVerification(false)
		return nil, pkgerrors.New(pkgerrors.CodeInvalidToken, invalidTokenMessage)
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark verified")
	}
	s.metrics.ObserveVerification(true)

	verified, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return verified, nil
}
