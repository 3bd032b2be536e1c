package challenges

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
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
	insertQuery   = `(?s)^INSERT\s+INTO\s+challenges\s*\(id,\s*identity_id,\s*code_hash,\s*salt,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+attempts,\s*created_at\s*$`
	deletePending = `^DELETE FROM challenges WHERE identity_id = \$1 AND consumed_at IS NULL$`
	pendingQuery  = `(?s)^SELECT\s+id,.*FROM\s+challenges\s+WHERE\s+identity_id\s*=\s*\$1\s+AND\s+consumed_at\s+IS\s+NULL\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+1\s*$`
	claimQuery    = `(?s)^UPDATE\s+challenges\s+SET\s+attempts\s*=\s*attempts\s*\+\s*1\s+WHERE\s+id\s*=\s*\$1\s+AND\s+attempts\s*<\s*\$2\s+AND\s+consumed_at\s+IS\s+NULL\s+RETURNING\s+attempts\s*$`
	consumeQuery  = `^UPDATE challenges SET consumed_at = \$2 WHERE id = \$1 AND consumed_at IS NULL$`
	deleteQuery   = `^DELETE FROM challenges WHERE id = \$1$`
)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(15 * time.Minute)
	mock.ExpectQuery(insertQuery).
		WithArgs("c-1", "id-1", []byte("h"), []byte("s"), exp).
		WillReturnRows(sqlmock.NewRows([]string{"attempts", "created_at"}).AddRow(0, time.Now()))

	c := &models.Challenge{ID: "c-1", IdentityID: "id-1", CodeHash: []byte("h"), Salt: []byte("s"), ExpiresAt: exp}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, 0, c.Attempts)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("fk violation"))

	err := repo.Create(context.Background(), &models.Challenge{ID: "c-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestDeletePending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deletePending).WithArgs("id-1").WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.DeletePending(context.Background(), "id-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Minute)
	cols := []string{"id", "identity_id", "code_hash", "salt", "attempts", "expires_at", "created_at"}
	mock.ExpectQuery(pendingQuery).WithArgs("id-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c-1", "id-1", []byte("h"), []byte("s"), 2, exp, time.Now()))
	mock.ExpectQuery(pendingQuery).WithArgs("id-2").WillReturnError(sql.ErrNoRows)

	c, err := repo.GetPending(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, 2, c.Attempts)

	_, err = repo.GetPending(context.Background(), "id-2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestClaimAttempt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(claimQuery).WithArgs("c-1", 5).WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(3))
	n, err := repo.ClaimAttempt(context.Background(), "c-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimAttempt_Exhausted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// the guarded update matches no row once the cap is reached
	mock.ExpectQuery(claimQuery).WithArgs("c-1", 5).WillReturnError(sql.ErrNoRows)
	_, err := repo.ClaimAttempt(context.Background(), "c-1", 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(claimQuery).WithArgs("c-1", 5).WillReturnError(errors.New("conn reset"))
	_, err = repo.ClaimAttempt(context.Background(), "c-1", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestConsume_OnlyOnce(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(consumeQuery).WithArgs("c-1", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(consumeQuery).WithArgs("c-1", at).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Consume(context.Background(), "c-1", at))
	assert.ErrorIs(t, repo.Consume(context.Background(), "c-1", at), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQuery).WithArgs("c-1").WillReturnError(errors.New("boom"))
	err := repo.Delete(context.Background(), "c-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: boom")
}
