package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"trakr/internal/model"
	"trakr/internal/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_Create(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	userRepo := repository.NewUserRepository(gormDB)

	user := &model.User{
		Email:          "test@example.com",
		Name:           "Test User",
		HashedPassword: "hashed_password",
	}

	// Ожидаем SQL запрос на создание пользователя
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))
	mock.ExpectCommit()

	// Act
	err := userRepo.Create(context.Background(), user)

	// Assert
	assert.NoError(t, err)
	assert.EqualValues(t, 17, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_Found(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	userRepo := repository.NewUserRepository(gormDB)

	email := "test@example.com"

	// Ожидаем SQL запрос на поиск пользователя по email
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE email = .* LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "hashed_password", "open_project", "created_at"}).
			AddRow(3, email, "Test User", "hashed_password", 12, time.Now()))

	// Act
	user, err := userRepo.FindByEmail(context.Background(), email)

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, user)
	assert.EqualValues(t, 3, user.ID)
	assert.Equal(t, email, user.Email)
	assert.Equal(t, "Test User", user.Name)
	require.NotNil(t, user.OpenProject)
	assert.EqualValues(t, 12, *user.OpenProject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	userRepo := repository.NewUserRepository(gormDB)

	// Ожидаем SQL запрос на поиск пользователя по email - не найден
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE email = .* LIMIT`).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	user, err := userRepo.FindByEmail(context.Background(), "nonexistent@example.com")

	// Assert
	assert.NoError(t, err) // Метод не возвращает ошибку при отсутствии записи
	assert.Nil(t, user)    // Но возвращает nil пользователя
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_Error(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	userRepo := repository.NewUserRepository(gormDB)

	// Ожидаем SQL запрос на поиск пользователя по email - произошла ошибка БД
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE email = .* LIMIT`).
		WillReturnError(assert.AnError)

	// Act
	user, err := userRepo.FindByEmail(context.Background(), "test@example.com")

	// Assert
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetOpenProject_UnknownUser(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	userRepo := repository.NewUserRepository(gormDB)
	projectID := int64(5)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "open_project"=.* WHERE email = .*`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := userRepo.SetOpenProject(context.Background(), "ghost@example.com", &projectID)

	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_PasswordReset(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, r.users.Create(ctx, &model.User{Email: owner, Name: "Owner", HashedPassword: "old"}))

	assert.ErrorIs(t, r.users.SetResetToken(ctx, "ghost@trakr.io", "t", now), repository.ErrUserNotFound)
	require.NoError(t, r.users.SetResetToken(ctx, owner, "token-1", now.Add(time.Hour)))

	assert.ErrorIs(t, r.users.ResetPassword(ctx, "wrong", "new", now), repository.ErrInvalidResetToken)
	require.NoError(t, r.users.ResetPassword(ctx, "token-1", "new", now))

	user, err := r.users.FindByEmail(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "new", user.HashedPassword)
	assert.Nil(t, user.ResetToken)

	// Tokens are single use.
	assert.ErrorIs(t, r.users.ResetPassword(ctx, "token-1", "again", now), repository.ErrInvalidResetToken)
}

func TestUserRepository_ExpiredResetTokens(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, r.users.Create(ctx, &model.User{Email: owner, Name: "Owner", HashedPassword: "old"}))
	require.NoError(t, r.users.Create(ctx, &model.User{Email: "dev@trakr.io", Name: "Dev", HashedPassword: "old"}))
	require.NoError(t, r.users.SetResetToken(ctx, owner, "stale", now.Add(-time.Minute)))
	require.NoError(t, r.users.SetResetToken(ctx, "dev@trakr.io", "fresh", now.Add(time.Hour)))

	assert.ErrorIs(t, r.users.ResetPassword(ctx, "stale", "new", now), repository.ErrInvalidResetToken)

	cleared, err := r.users.DeleteExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	require.NoError(t, r.users.ResetPassword(ctx, "fresh", "new", now))
}
