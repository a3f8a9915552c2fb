package secrets

import (
	"context"
	"database/sql"
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

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func secretRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "kind", "name", "ciphertext", "folder_id", "created_at"})
}

func TestCreate(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`(?s)INSERT INTO secrets \(id, owner_id, kind, name, ciphertext, folder_id, created_at\)`).
		WithArgs("s1", "u1", "password", "github", "Y2lwaGVy", nil, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Secret{
		ID: "s1", OwnerID: "u1", Kind: models.SecretPassword, Name: "github", Ciphertext: "Y2lwaGVy", CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MissingFolder(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO secrets`).WillReturnError(&pgconn.PgError{Code: "23503"})

	folder := "ghost"
	err := repo.Create(context.Background(), &models.Secret{ID: "s1", FolderID: &folder})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM secrets WHERE id=\$1`).WithArgs("s1").
		WillReturnRows(secretRows().AddRow("s1", "u1", "apikey", "stripe", "ZZZ", "fo1", created))
	mock.ExpectQuery(`FROM secrets WHERE id=\$1`).WithArgs("s2").WillReturnRows(secretRows())
	mock.ExpectQuery(`FROM secrets WHERE id=\$1`).WithArgs("s3").WillReturnError(errors.New("db down"))

	got, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SecretAPIKey, got.Kind)
	require.NotNil(t, got.FolderID)
	assert.Equal(t, "fo1", *got.FolderID)

	_, err = repo.Get(context.Background(), "s2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.Get(context.Background(), "s3")
	assert.ErrorContains(t, err, "db down")
}

func TestList(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM secrets\s+WHERE owner_id=\$1 AND folder_id IS NOT DISTINCT FROM \$2\s+ORDER BY kind, name`).
		WithArgs("u1", nil).
		WillReturnRows(secretRows().
			AddRow("s1", "u1", "apikey", "aws", "A", nil, created).
			AddRow("s2", "u1", "password", "mail", "B", nil, created))

	got, err := repo.List(context.Background(), "u1", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "aws", got[0].Name)
	assert.Nil(t, got[1].FolderID)
}

func TestUpdateFolderAndDelete(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE secrets SET folder_id=\$2 WHERE id=\$1$`).WithArgs("s1", "fo1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE secrets SET folder_id=\$2 WHERE id=\$1$`).WithArgs("s1", "ghost").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectExec(`^DELETE FROM secrets WHERE id=\$1$`).WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM secrets WHERE id=\$1$`).WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	folder, ghost := "fo1", "ghost"
	require.NoError(t, repo.UpdateFolder(context.Background(), "s1", &folder))
	assert.ErrorIs(t, repo.UpdateFolder(context.Background(), "s1", &ghost), common.ErrorNotFound)
	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "s1"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
