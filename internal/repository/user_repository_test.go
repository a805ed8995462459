package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/academia-sys/academia-api/internal/models"
)

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "person_id", "username", "email", "password_hash", "role", "email_verified", "reset_token", "active", "created_at", "updated_at"}).
		AddRow(1, nil, "admin", "admin@academia.test", "hash", models.RoleSystemAdmin, true, nil, true, now, now)
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, person_id, username.+FROM users WHERE username = \\$1").
		WithArgs("admin").
		WillReturnRows(userRows())

	user, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
	require.Equal(t, models.RoleSystemAdmin, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (person_id, username, email, password_hash, role, email_verified, active, created_at, updated_at)")).
		WithArgs(nil, "admin", "admin@academia.test", "hash", models.RoleSystemAdmin,
			false, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	user := &models.User{
		Username:     "admin",
		Email:        "admin@academia.test",
		PasswordHash: "hash",
		Role:         models.RoleSystemAdmin,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	require.Equal(t, int64(7), user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByUsername(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT 1 FROM users WHERE username = \\$1 LIMIT 1").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM users WHERE username = \\$1 LIMIT 1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByUsername(context.Background(), "admin", 0)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsByUsername(context.Background(), "ghost", 0)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, token_hash, expires_at, ip, user_agent, created_at)")).
		WithArgs(int64(1), "hash-value", sqlmock.AnyArg(), "127.0.0.1", "tests", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	token := &models.RefreshToken{
		UserID:    1,
		TokenHash: "hash-value",
		ExpiresAt: time.Now().Add(time.Hour),
		IP:        "127.0.0.1",
		UserAgent: "tests",
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	require.Equal(t, int64(3), token.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL")).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), 3, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = false, updated_at = $2 WHERE id = $1")).
		WithArgs(int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), 4))
	require.NoError(t, mock.ExpectationsWereMet())
}
