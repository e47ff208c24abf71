package users

import (
	"context"
	"testing"

	"github.com/angelmondragon/usermanagement-backend/pkg/db"
	"github.com/angelmondragon/usermanagement-backend/pkg/db/models"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	return conn
}

type recordingNotifier struct {
	verifications []string
	locked        []string
}

func (n *recordingNotifier) SendVerification(_ context.Context, user *models.User, token string) {
	n.verifications = append(n.verifications, user.Email+"|"+token)
}

func (n *recordingNotifier) SendAccountLocked(_ context.Context, user *models.User) {
	n.locked = append(n.locked, user.Email)
}

func newTestService(t *testing.T) (Service, *Repository, *recordingNotifier) {
	t.Helper()
	conn := newTestDB(t)
	repo := NewRepository(conn)
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       db.Wrap(conn),
		Notifier: notifier,
	})
	require.NoError(t, err)
	return svc, repo, notifier
}

func seedUser(t *testing.T, repo *Repository, email, nickname string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }
