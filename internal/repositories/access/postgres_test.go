package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var ts = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const upsertQ = `(?s)INSERT\s+INTO\s+folder_access\b.*ON\s+CONFLICT\s*\(folder_id, user_id\)\s*DO\s+UPDATE\s+SET\b.*access_level\s*=\s*EXCLUDED\.access_level`

func TestUpsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	admin := "owner-1"

	mock.ExpectExec(upsertQ).WithArgs("f1", "u2", "write", "owner-1", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertQ).WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectExec(upsertQ).WillReturnError(errors.New("db down"))

	g := &models.FolderAccess{FolderID: "f1", UserID: "u2", AccessLevel: models.AccessWrite, GrantedBy: &admin, UpdatedAt: ts}
	require.NoError(t, repo.Upsert(context.Background(), g))
	assert.ErrorIs(t, repo.Upsert(context.Background(), g), common.ErrorNotFound)
	assert.ErrorContains(t, repo.Upsert(context.Background(), g), "db error: db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingGrantIsNoop(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `^DELETE FROM folder_access WHERE folder_id=\$1 AND user_id=\$2$`
	mock.ExpectExec(q).WithArgs("f1", "u2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("f1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "f1", "u2"))
	require.NoError(t, repo.Delete(context.Background(), "f1", "u2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func grantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"folder_id", "user_id", "access_level", "granted_by", "created_at", "updated_at"})
}

func TestListAndGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM folder_access WHERE folder_id=\$1 ORDER BY user_id`).WithArgs("f1").
		WillReturnRows(grantRows().
			AddRow("f1", "u1", "admin", nil, ts, ts).
			AddRow("f1", "u2", "read", "u1", ts, ts))
	mock.ExpectQuery(`(?s)FROM folder_access WHERE folder_id=\$1 AND user_id=\$2`).WithArgs("f1", "u2").
		WillReturnRows(grantRows().AddRow("f1", "u2", "read", "u1", ts, ts))
	mock.ExpectQuery(`(?s)FROM folder_access WHERE folder_id=\$1 AND user_id=\$2`).WithArgs("f1", "u3").
		WillReturnRows(grantRows())

	list, err := repo.List(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.AccessAdmin, list[0].AccessLevel)
	assert.Nil(t, list[0].GrantedBy)
	require.NotNil(t, list[1].GrantedBy)
	assert.Equal(t, "u1", *list[1].GrantedBy)

	g, err := repo.Get(context.Background(), "f1", "u2")
	require.NoError(t, err)
	assert.Equal(t, models.AccessRead, g.AccessLevel)

	_, err = repo.Get(context.Background(), "f1", "u3")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
