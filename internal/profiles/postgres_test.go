package profiles

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralapp/journal/internal/common"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

var profileColumns = []string{"id", "fullname", "email", "username", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)

	createdAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs("p1", "Ada Lovelace", "ada@example.com", "ada").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	profile := &Profile{ID: "p1", FullName: "Ada Lovelace", Email: "ada@example.com", UserName: "ada"}
	require.NoError(t, repo.Create(context.Background(), profile))
	assert.Equal(t, createdAt, profile.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, fullname, email, username, created_at FROM profiles")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("p1", "Ada Lovelace", "ada@example.com", "ada", time.Now()))

	got, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, fullname, email, username, created_at FROM profiles")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(profileColumns))

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByUserName(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("p1", "Ada Lovelace", "ada@example.com", "ada", time.Now()))

	got, err := repo.GetByUserName(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UserNameExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UserNameExists(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateUserName_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET username = $1")).
		WithArgs("countess", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateUserName(context.Background(), "ghost", "countess")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET email = $1")).
		WithArgs("new@example.com", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateEmail(context.Background(), "p1", "new@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles WHERE id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
