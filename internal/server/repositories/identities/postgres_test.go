package identities

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	insertQuery  = `(?s)^INSERT\s+INTO\s+identities\s*\(id,\s*email,\s*password_hash,\s*email_verified\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at\s*$`
	byEmailQuery = `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*email_verified,\s*created_at\s+FROM\s+identities\s+WHERE\s+email\s*=\s*\$1\s*$`
	byIDQuery    = `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*email_verified,\s*created_at\s+FROM\s+identities\s+WHERE\s+id\s*=\s*\$1\s*$`
	verifyQuery  = `^UPDATE identities SET email_verified = TRUE WHERE id = \$1$`
)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(insertQuery).
		WithArgs("id-1", "a@x.com", []byte("hash"), false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	got, err := repo.Create(context.Background(), &models.Identity{ID: "id-1", Email: "a@x.com", PasswordHash: []byte("hash")})
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("id-2", "a@x.com", []byte(nil), false).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Identity{ID: "id-2", Email: "a@x.com"})
	assert.ErrorIs(t, err, common.ErrIdentityExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("conn reset"))

	_, err := repo.Create(context.Background(), &models.Identity{ID: "id-3", Email: "b@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: conn reset")
}

func TestGetByEmailAndID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "email", "password_hash", "email_verified", "created_at"}

	mock.ExpectQuery(byEmailQuery).WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("id-1", "a@x.com", nil, true, now))
	mock.ExpectQuery(byIDQuery).WithArgs("id-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("id-1", "a@x.com", []byte("h"), false, now))

	i, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", i.ID)
	assert.True(t, i.EmailVerified)
	assert.Nil(t, i.PasswordHash)

	i, err = repo.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("h"), i.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMarkEmailVerified(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(verifyQuery).WithArgs("id-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(verifyQuery).WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkEmailVerified(context.Background(), "id-1"))
	assert.ErrorIs(t, repo.MarkEmailVerified(context.Background(), "missing"), common.ErrorNotFound)
}
