package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/usermanagement-backend/pkg/db"
	"github.com/angelmondragon/usermanagement-backend/pkg/db/models"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	"github.com/angelmondragon/usermanagement-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreateAssignsDefaults(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	user := seedUser(t, repo, "jane@example.com", "jane_doe", "")

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, enums.UserRoleAnonymous, user.Role)

	found, err := repo.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.False(t, found.EmailVerified)
	assert.False(t, found.IsLocked)
	assert.Equal(t, 0, found.FailedLoginAttempts)
}

func TestRepositoryUniqueConstraints(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	seedUser(t, repo, "jane@example.com", "jane_doe", enums.UserRoleAuthenticated)

	err := repo.Create(context.Background(), &models.User{Email: "jane@example.com", Nickname: "other", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "email"))

	err = repo.Create(context.Background(), &models.User{Email: "other@example.com", Nickname: "jane_doe", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "nickname"))
}

func TestRecordFailedLoginLocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := seedUser(t, repo, "jane@example.com", "jane_doe", enums.UserRoleAuthenticated)

	for i := 1; i <= 2; i++ {
		updated, err := repo.RecordFailedLogin(ctx, user.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, i, updated.FailedLoginAttempts)
		assert.False(t, updated.IsLocked)
	}

	updated, err := repo.RecordFailedLogin(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.FailedLoginAttempts)
	assert.True(t, updated.IsLocked)

	_, err = repo.RecordFailedLogin(ctx, uuid.New(), 3)
	assert.True(t, db.IsNotFound(err))
}

func TestRecordFailedLoginConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := seedUser(t, repo, "jane@example.com", "jane_doe", enums.UserRoleAuthenticated)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordFailedLogin(ctx, user.ID, 100)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, found.FailedLoginAttempts)
}

func TestRecordSuccessfulLoginResetsCounter(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := seedUser(t, repo, "jane@example.com", "jane_doe", enums.UserRoleAuthenticated)

	_, err := repo.RecordFailedLogin(ctx, user.ID, 3)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.RecordSuccessfulLogin(ctx, user.ID, now))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.FailedLoginAttempts)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(now))
}

func TestMarkVerifiedPromotesAnonymousOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	anon := seedUser(t, repo, "anon@example.com", "anon_user", enums.UserRoleAnonymous)
	manager := seedUser(t, repo, "mgr@example.com", "mgr_user", enums.UserRoleManager)

	require.NoError(t, repo.SetVerificationToken(ctx, anon.ID, "tok"))
	require.NoError(t, repo.MarkVerified(ctx, anon.ID))
	require.NoError(t, repo.MarkVerified(ctx, manager.ID))

	found, err := repo.FindByID(ctx, anon.ID)
	require.NoError(t, err)
	assert.True(t, found.EmailVerified)
	assert.Nil(t, found.VerificationToken)
	assert.Equal(t, enums.UserRoleAuthenticated, found.Role)

	found, err = repo.FindByID(ctx, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleManager, found.Role)
}

func TestUnlockClearsState(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := seedUser(t, repo, "jane@example.com", "jane_doe", enums.UserRoleAuthenticated)
	_, err := repo.RecordFailedLogin(ctx, user.ID, 1)
	require.NoError(t, err)

	require.NoError(t, repo.Unlock(ctx, user.ID))
	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found.IsLocked)
	assert.Equal(t, 0, found.FailedLoginAttempts)

	assert.True(t, db.IsNotFound(repo.Unlock(ctx, uuid.New())))
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	for _, nick := range []string{"aaa", "bbb", "ccc", "ddd", "eee"} {
		seedUser(t, repo, nick+"@example.com", nick, enums.UserRoleAuthenticated)
	}

	rows, total, err := repo.List(ctx, pagination.Params{Skip: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, rows, 2)

	rows, _, err = repo.List(ctx, pagination.Params{Skip: 4, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpdateAppliesOnlyGivenColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := seedUser(t, repo, "jane@example.com", "jane_doe", enums.UserRoleAuthenticated)

	updated, err := repo.Update(ctx, user.ID, map[string]any{"bio": "hello"})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Equal(t, "jane_doe", updated.Nickname)

	_, err = repo.Update(ctx, uuid.New(), map[string]any{"bio": "x"})
	assert.True(t, db.IsNotFound(err))
}
