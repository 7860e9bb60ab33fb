package repository

import (
	"context"
	"regexp"
	"testing"

	"contentflow/internal/models"
	"contentflow/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockedRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewUserRepository(db), mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockedRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{
		Username: "dup", Email: "dup@example.com", Password: "pw",
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailNotFoundReturnsNil(t *testing.T) {
	repo, mock := newMockedRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("ghost@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "roundtrip", Email: "roundtrip@example.com", Password: "hash", IsActive: false}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	fetched, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", fetched.Username)
	assert.Equal(t, "hash", fetched.Password, "password hash must survive lookups")
	assert.False(t, fetched.IsActive)

	fetched.IsActive = true
	require.NoError(t, repo.Update(ctx, fetched))

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, again.IsActive)

	byName, err := repo.GetByUsername(ctx, "roundtrip")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.ID, byName.ID)

	missing, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateDuplicateUser(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "u1", Email: "u1@example.com", Password: "pw"}))
	err := repo.Create(ctx, &models.User{Username: "u1", Email: "other@example.com", Password: "pw"})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}
